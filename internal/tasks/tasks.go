package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cancionero/internal/catalog"
	"github.com/desertthunder/cancionero/internal/models"
)

const (
	// DefaultWorkers is used when no worker count is given.
	DefaultWorkers = 3
	// MaxWorkers caps concurrent uploads.
	MaxWorkers = 10
)

// PhotoPublisher publishes one song photo, implemented by [catalog.Service].
type PhotoPublisher interface {
	PublishPhoto(ctx context.Context, store catalog.SongStore, id int64) (string, error)
}

// SongPublishResult is the outcome for a single song.
type SongPublishResult struct {
	SongID int64  `json:"song_id"`
	URL    string `json:"url,omitempty"`
	Err    error  `json:"-"`
}

// BulkPublishResult summarizes a [PublishEngine.PublishAll] run.
type BulkPublishResult struct {
	Total     int                 `json:"total"`
	Published int                 `json:"published"`
	Failed    int                 `json:"failed"`
	Results   []SongPublishResult `json:"results"`
}

// BulkPublishOpts contains configuration for bulk publishing.
type BulkPublishOpts struct {
	NumWorkers int // Concurrent workers (default: 3, max: 10)
}

// PublishEngine publishes photos for many songs at once.
//
// The store is shared by every worker and must be safe for concurrent use, as a
// repository over *sql.DB is.
type PublishEngine struct {
	publisher PhotoPublisher
	store     catalog.SongStore
	logger    *log.Logger
}

// NewPublishEngine creates a [PublishEngine].
func NewPublishEngine(publisher PhotoPublisher, store catalog.SongStore, logger *log.Logger) *PublishEngine {
	return &PublishEngine{publisher: publisher, store: store, logger: logger}
}

func (e *PublishEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Pending returns the songs that have a local photo but no published copy, in input order.
func Pending(songs []models.Song) []int64 {
	ids := make([]int64, 0, len(songs))
	for _, song := range songs {
		if song.HasPhoto() && !song.IsPublished() {
			ids = append(ids, song.ID)
		}
	}
	return ids
}

// PublishAll publishes the photo of every song in ids using a worker pool.
//
// Per-song failures are collected in the result. The returned error is non-nil only when
// ctx ends before every song was attempted; the partial result is returned with it.
func (e *PublishEngine) PublishAll(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []int64,
	opts BulkPublishOpts,
) (*BulkPublishResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	if opts.NumWorkers > MaxWorkers {
		opts.NumWorkers = MaxWorkers
	}

	result := &BulkPublishResult{
		Total:   len(ids),
		Results: make([]SongPublishResult, 0, len(ids)),
	}

	jobs := make(chan int64, len(ids))
	results := make(chan SongPublishResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.publishWorker(ctx, &wg, jobs, results)
	}

	e.sendProgress(prog, queuedUpdate(len(ids)))
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Err == nil {
			result.Published++
			e.sendProgress(prog, publishedUpdate(completed, len(ids), res))
		} else {
			result.Failed++
			e.sendProgress(prog, publishFailedUpdate(completed, len(ids), res))
		}
	}

	e.logger.Info("bulk publish finished", "total", result.Total, "published", result.Published, "failed", result.Failed)

	if completed < len(ids) {
		return result, fmt.Errorf("bulk publish interrupted after %d of %d songs: %w", completed, len(ids), ctx.Err())
	}
	return result, nil
}

// publishWorker publishes songs from the jobs channel until it is drained or ctx ends.
func (e *PublishEngine) publishWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan int64,
	results chan<- SongPublishResult,
) {
	defer wg.Done()

	for id := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		url, err := e.publisher.PublishPhoto(ctx, e.store, id)
		results <- SongPublishResult{SongID: id, URL: url, Err: err}
	}
}
