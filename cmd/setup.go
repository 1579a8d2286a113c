package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cancionero/internal/repositories"
	"github.com/desertthunder/cancionero/internal/shared"
)

// Setup writes a config file from the template when none exists, then creates the upload
// directory and the database schema. Running it again is harmless.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(config.Media.UploadDir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create upload directory: %v", shared.ErrStorage, err)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := repositories.NewSongRepository(db).Count(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ Configuration: %s\n", configPath)
	r.writePlain("✓ Database: %s (%d songs)\n", config.Database.Path, count)
	r.writePlain("✓ Uploads: %s\n", config.Media.UploadDir)
	if config.Publisher.Backend == shared.PublisherNone {
		r.writePlain("Remote publishing is disabled; set [publisher] backend to enable it.\n")
	}
	return nil
}
