// Package catalog orchestrates song operations across the database, the local image store
// and the remote media publisher.
//
// Every operation takes the request-scoped [SongStore] as a parameter; the [Service] itself
// holds no connection. Text is sanitized before validation, new images are stored before the
// row is committed and an image being replaced is removed only after the new row commits.
// Nothing spans the file system and the database transactionally: a crash between the two
// can leave an orphaned file, which is logged and never retried.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cancionero/internal/models"
	"github.com/desertthunder/cancionero/internal/sanitize"
	"github.com/desertthunder/cancionero/internal/shared"
)

// DefaultPageSize is the number of songs per listing page.
const DefaultPageSize = 5

// SongStore is the persistence contract, implemented by [repositories.SongRepository].
type SongStore interface {
	ListPage(ctx context.Context, filter string, offset, limit int) ([]models.Song, int, error)
	Get(ctx context.Context, id int64) (*models.Song, error)
	Create(ctx context.Context, song *models.Song) (int64, error)
	Update(ctx context.Context, song *models.Song) error
	SetRemotePhotoURL(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) error
}

// ImageStore persists uploaded images, implemented by [media.Ingestor].
type ImageStore interface {
	Store(ctx context.Context, r io.Reader, filename string) (string, error)
	Path(ref string) (string, error)
	Remove(ref string) error
}

// Publisher copies a local image to a remote host, implemented by [publisher.Publisher].
type Publisher interface {
	Publish(ctx context.Context, localPath, name string) (string, error)
}

// Upload is a photo submitted with a create or update request.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// CreateInput carries the fields of a new song.
type CreateInput struct {
	Title  string
	Lyrics string
	Photo  *Upload
}

// UpdateInput carries the replacement fields of an existing song.
// A nil Photo keeps the current image.
type UpdateInput struct {
	Title  string
	Lyrics string
	Photo  *Upload
}

// Service implements the catalogue use cases.
type Service struct {
	images    ImageStore
	publisher Publisher
	pageSize  int
	logger    *log.Logger
}

// NewService creates a [Service]. A non-positive pageSize falls back to [DefaultPageSize].
func NewService(images ImageStore, publisher Publisher, pageSize int, logger *log.Logger) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Service{images: images, publisher: publisher, pageSize: pageSize, logger: logger}
}

// PageSize returns the number of songs per page.
func (s *Service) PageSize() int { return s.pageSize }

// ListSongs returns one page of songs, newest first, optionally filtered by query.
// Pages below 1 are treated as the first page; pages past the end are empty.
func (s *Service) ListSongs(ctx context.Context, store SongStore, query string, page int) (*models.Page, error) {
	p := models.NewPage(strings.TrimSpace(query), page, s.pageSize)

	songs, total, err := store.ListPage(ctx, p.Query, p.Offset(), p.PageSize)
	if err != nil {
		return nil, err
	}

	p.Songs = songs
	p.SetTotal(total)
	return p, nil
}

// GetSong returns a song by ID.
func (s *Service) GetSong(ctx context.Context, store SongStore, id int64) (*models.Song, error) {
	return store.Get(ctx, id)
}

// CreateSong sanitizes and validates the input, stores the optional photo and inserts the row.
func (s *Service) CreateSong(ctx context.Context, store SongStore, in CreateInput) (*models.Song, error) {
	title, lyrics, err := cleanFields(in.Title, in.Lyrics)
	if err != nil {
		return nil, err
	}

	song := &models.Song{Title: title, Lyrics: lyrics}

	var stored string
	if in.Photo != nil {
		if stored, err = s.images.Store(ctx, in.Photo.Reader, in.Photo.Filename); err != nil {
			return nil, err
		}
		song.ReplacePhoto(stored)
	}

	if _, err := store.Create(ctx, song); err != nil {
		s.discard(stored, "create failed")
		return nil, err
	}

	s.logger.Info("song created", "id", song.ID, "photo", song.HasPhoto())
	return song, nil
}

// UpdateSong replaces title and lyrics and, when a photo is supplied, the image.
//
// A new photo clears the remote URL, since the published copy no longer matches.
// The previous image file is removed only after the row is committed.
func (s *Service) UpdateSong(ctx context.Context, store SongStore, id int64, in UpdateInput) (*models.Song, error) {
	song, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	title, lyrics, err := cleanFields(in.Title, in.Lyrics)
	if err != nil {
		return nil, err
	}
	song.Title, song.Lyrics = title, lyrics

	previous := song.Photo()
	var stored string
	if in.Photo != nil {
		if stored, err = s.images.Store(ctx, in.Photo.Reader, in.Photo.Filename); err != nil {
			return nil, err
		}
		song.ReplacePhoto(stored)
	}

	if err := store.Update(ctx, song); err != nil {
		s.discard(stored, "update failed")
		return nil, err
	}

	if stored != "" && previous != "" {
		s.discard(previous, "photo replaced")
	}

	s.logger.Info("song updated", "id", song.ID, "photo_replaced", stored != "")
	return song, nil
}

// DeleteSong removes the row and then, best effort, its image file.
// Deleting an unknown ID reports [shared.ErrNotFound].
func (s *Service) DeleteSong(ctx context.Context, store SongStore, id int64) error {
	song, err := store.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := store.Delete(ctx, id); err != nil {
		return err
	}

	if song.HasPhoto() {
		s.discard(song.Photo(), "song deleted")
	}

	s.logger.Info("song deleted", "id", id)
	return nil
}

// PublishPhoto uploads the song's local image under "{id}_{stem}" and records the returned URL.
//
// A song without a photo, or whose file is gone, reports [shared.ErrNotFound]. A failed upload
// reports [shared.ErrRemoteService] and leaves the row untouched.
func (s *Service) PublishPhoto(ctx context.Context, store SongStore, id int64) (string, error) {
	song, err := store.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if !song.HasPhoto() {
		return "", fmt.Errorf("%w: song %d has no photo", shared.ErrNotFound, id)
	}

	path, err := s.images.Path(song.Photo())
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrNotFound, err)
	}

	if s.publisher == nil {
		return "", fmt.Errorf("%w: remote publishing is not configured", shared.ErrRemoteService)
	}

	url, err := s.publisher.Publish(ctx, path, song.PublicID())
	if err != nil {
		return "", err
	}

	if err := store.SetRemotePhotoURL(ctx, id, url); err != nil {
		return "", err
	}

	s.logger.Info("photo published", "id", id, "url", url)
	return url, nil
}

// cleanFields sanitizes both text fields and requires them to be non-empty.
func cleanFields(title, lyrics string) (string, string, error) {
	title = sanitize.Field(title)
	lyrics = sanitize.Field(lyrics)

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if lyrics == "" {
		missing = append(missing, "lyrics")
	}
	if len(missing) > 0 {
		return "", "", fmt.Errorf("%w: %s required", shared.ErrValidation, strings.Join(missing, " and "))
	}
	return title, lyrics, nil
}

func (s *Service) discard(ref, reason string) {
	if ref == "" {
		return
	}
	if err := s.images.Remove(ref); err != nil && !errors.Is(err, shared.ErrValidation) {
		s.logger.Warn("failed to remove image", "ref", ref, "reason", reason, "error", err)
		return
	}
	s.logger.Debug("removed image", "ref", ref, "reason", reason)
}
