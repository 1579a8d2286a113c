package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/cancionero/internal/models"
	"github.com/desertthunder/cancionero/internal/shared"
)

const songColumns = "id, titulo, letra, ruta_foto, url_web_foto"

// SongRepository persists [models.Song] rows in the canciones table.
//
// Every statement commits on its own; there are no multi-statement transactions.
// Driver failures are wrapped with [shared.ErrStorage], missing rows are reported as [shared.ErrNotFound].
type SongRepository struct {
	db DBTX
}

// NewSongRepository creates a new [SongRepository] over the given connection.
func NewSongRepository(db DBTX) *SongRepository {
	return &SongRepository{db: db}
}

// ListPage returns up to limit songs starting at offset, newest first, together with the number of matching rows.
//
// A non-empty filter keeps songs whose title or lyrics contain it (case-insensitive for ASCII).
// An offset past the last row yields an empty slice, not an error.
func (r *SongRepository) ListPage(ctx context.Context, filter string, offset, limit int) ([]models.Song, int, error) {
	where := ""
	args := []any{}
	if filter != "" {
		pattern := containsPattern(filter)
		where = ` WHERE titulo LIKE ? ESCAPE '\' OR letra LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM canciones"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count songs: %v", shared.ErrStorage, err)
	}

	query := "SELECT " + songColumns + " FROM canciones" + where + " ORDER BY id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to query songs: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		song, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		songs = append(songs, *song)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorage, err)
	}

	return songs, total, nil
}

// All returns every song, newest first.
func (r *SongRepository) All(ctx context.Context) ([]models.Song, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+songColumns+" FROM canciones ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query songs: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		song, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorage, err)
	}

	return songs, nil
}

// Get retrieves a song by ID
func (r *SongRepository) Get(ctx context.Context, id int64) (*models.Song, error) {
	query := "SELECT " + songColumns + " FROM canciones WHERE id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts a new song and sets its ID.
func (r *SongRepository) Create(ctx context.Context, song *models.Song) (int64, error) {
	query := `
		INSERT INTO canciones (titulo, letra, ruta_foto, url_web_foto)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		song.Title,
		song.Lyrics,
		nullable(song.LocalPhotoRef),
		nullable(song.RemotePhotoURL),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert song: %v", shared.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get inserted id: %v", shared.ErrStorage, err)
	}

	song.ID = id
	return id, nil
}

// Update overwrites every mutable column of an existing song.
func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	query := `
		UPDATE canciones
		SET titulo = ?, letra = ?, ruta_foto = ?, url_web_foto = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		song.Title,
		song.Lyrics,
		nullable(song.LocalPhotoRef),
		nullable(song.RemotePhotoURL),
		song.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update song: %v", shared.ErrStorage, err)
	}

	return r.expectOne(result, song.ID)
}

// SetRemotePhotoURL records the URL of the published copy of a song's photo.
func (r *SongRepository) SetRemotePhotoURL(ctx context.Context, id int64, url string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE canciones SET url_web_foto = ? WHERE id = ?", url, id)
	if err != nil {
		return fmt.Errorf("%w: failed to update remote photo url: %v", shared.ErrStorage, err)
	}

	return r.expectOne(result, id)
}

// Delete removes a song by ID
func (r *SongRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM canciones WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete song: %v", shared.ErrStorage, err)
	}

	return r.expectOne(result, id)
}

// Count returns the number of catalogued songs.
func (r *SongRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM canciones").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: failed to count songs: %v", shared.ErrStorage, err)
	}
	return count, nil
}

func (r *SongRepository) expectOne(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", shared.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: song %d", shared.ErrNotFound, id)
	}
	return nil
}

// scanOne scans a single [sql.Row] into a [models.Song]
func (r *SongRepository) scanOne(row *sql.Row) (*models.Song, error) {
	var (
		song      models.Song
		photoRef  sql.NullString
		remoteURL sql.NullString
	)

	err := row.Scan(&song.ID, &song.Title, &song.Lyrics, &photoRef, &remoteURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: song", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan song: %v", shared.ErrStorage, err)
	}

	song.LocalPhotoRef = fromNull(photoRef)
	song.RemotePhotoURL = fromNull(remoteURL)
	return &song, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Song]
func (r *SongRepository) scanRow(rows *sql.Rows) (*models.Song, error) {
	var (
		song      models.Song
		photoRef  sql.NullString
		remoteURL sql.NullString
	)

	if err := rows.Scan(&song.ID, &song.Title, &song.Lyrics, &photoRef, &remoteURL); err != nil {
		return nil, fmt.Errorf("%w: failed to scan song: %v", shared.ErrStorage, err)
	}

	song.LocalPhotoRef = fromNull(photoRef)
	song.RemotePhotoURL = fromNull(remoteURL)
	return &song, nil
}
