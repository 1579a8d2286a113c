package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cancionero/internal/catalog"
	"github.com/desertthunder/cancionero/internal/media"
	"github.com/desertthunder/cancionero/internal/publisher"
	"github.com/desertthunder/cancionero/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	openBrowser func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config, when set, is used as is and no file is read.
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	// OpenBrowser defaults to [shared.OpenBrowser].
	OpenBrowser func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, songsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for a command: the injected config, else the file at
// --config (defaults when it does not exist), overlaid with the environment and validated.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := r.configPath
	if cmd != nil && cmd.String("config") != "" {
		path = cmd.String("config")
	}

	config := shared.DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := shared.LoadConfig(path)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
			}
			config = loaded
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	shared.ConfigureLogger(r.logger, config.Log)
	r.config = config
	return config, nil
}

// openDatabase opens the configured database and makes sure the schema exists.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.EnsureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ensure schema: %v", shared.ErrStorage, err)
	}
	return db, nil
}

// services bundles what the catalogue commands need.
type services struct {
	db        *sql.DB
	images    *media.Ingestor
	publisher *publisher.Publisher
	catalog   *catalog.Service
}

func (s *services) Close() error {
	return s.db.Close()
}

// buildServices wires the database, image store, publisher and catalog from config.
func (r *Runner) buildServices(ctx context.Context, config *shared.Config) (*services, error) {
	db, err := r.openDatabase(config)
	if err != nil {
		return nil, err
	}

	images, err := media.NewIngestor(config.Media, config.MaxUploadBytes(), shared.WithLogger(r.logger, "component", "media"))
	if err != nil {
		db.Close()
		return nil, err
	}

	pub, err := publisher.NewFromConfig(ctx, config.Publisher, shared.WithLogger(r.logger, "component", "publisher"))
	if err != nil {
		db.Close()
		return nil, err
	}

	svc := catalog.NewService(images, pub, config.Catalog.PageSize, shared.WithLogger(r.logger, "component", "catalog"))

	return &services{db: db, images: images, publisher: pub, catalog: svc}, nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
