package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cancionero/internal/formatter"
	"github.com/desertthunder/cancionero/internal/repositories"
	"github.com/desertthunder/cancionero/internal/shared"
	"github.com/desertthunder/cancionero/internal/tasks"
)

// SongsList prints one page of songs in the requested format.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, err := r.buildServices(ctx, config)
	if err != nil {
		return err
	}
	defer svc.Close()

	page, err := svc.catalog.ListSongs(ctx, repositories.NewSongRepository(svc.db), cmd.String("query"), cmd.Int("page"))
	if err != nil {
		return fmt.Errorf("failed to list songs: %w", err)
	}

	r.logger.Debug("listed songs", "query", page.Query, "page", page.Page, "total", page.Total)
	return formatter.WritePage(r.output, format, page)
}

// SongsExport writes every song to a file.
func (r *Runner) SongsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	songs, err := repositories.NewSongRepository(db).All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load songs: %w", err)
	}

	path, err := formatter.WriteExport(songs, format, cmd.String("output"), config.Media.UploadDir)
	if err != nil {
		return err
	}

	r.logger.Info("exported catalogue", "songs", len(songs), "format", format, "path", path)
	return r.writePlain("✓ Exported %d songs to %s\n", len(songs), path)
}

// SongsPublish uploads one song photo, or with --all every unpublished one, and prints the URLs.
func (r *Runner) SongsPublish(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Int64("id")
	all := cmd.Bool("all")

	if id == 0 && !all {
		return fmt.Errorf("%w: either --id or --all must be provided", shared.ErrMissingArgument)
	}
	if id != 0 && all {
		return fmt.Errorf("%w: cannot specify both --id and --all", shared.ErrInvalidArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, err := r.buildServices(ctx, config)
	if err != nil {
		return err
	}
	defer svc.Close()

	store := repositories.NewSongRepository(svc.db)
	if all {
		return r.publishAll(ctx, svc, store, cmd.Int("workers"))
	}

	url, err := svc.catalog.PublishPhoto(ctx, store, id)
	if err != nil {
		return fmt.Errorf("failed to publish photo for song %d: %w", id, err)
	}

	r.writePlainHeader(fmt.Sprintf("Song %d published via %s", id, svc.publisher.Backend()))
	return r.writePlain("%s\n", url)
}

func (r *Runner) publishAll(ctx context.Context, svc *services, store *repositories.SongRepository, workers int) error {
	if !svc.publisher.Enabled() {
		return fmt.Errorf("%w: remote publishing is not configured", shared.ErrRemoteService)
	}

	songs, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load songs: %w", err)
	}

	ids := tasks.Pending(songs)
	if len(ids) == 0 {
		return r.writePlain("Nothing to publish.\n")
	}

	engine := tasks.NewPublishEngine(svc.catalog, store, shared.WithLogger(r.logger, "component", "tasks"))

	progress := make(chan tasks.ProgressUpdate, len(ids)+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := engine.PublishAll(ctx, progress, ids, tasks.BulkPublishOpts{NumWorkers: workers})
	close(progress)
	<-done

	if result != nil {
		r.writePlainHeader(fmt.Sprintf("Published %d of %d photos via %s", result.Published, result.Total, svc.publisher.Backend()))
	}
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d photos failed to publish", shared.ErrRemoteService, result.Failed)
	}
	return nil
}
