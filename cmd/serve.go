package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cancionero/internal/server"
	"github.com/desertthunder/cancionero/internal/shared"
	"github.com/desertthunder/cancionero/internal/web"
)

// Serve runs the web application until SIGINT or SIGTERM, then shuts down gracefully.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.IsSet("host") {
		config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		config.Server.Port = cmd.Int("port")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := r.buildServices(ctx, config)
	if err != nil {
		return err
	}
	defer svc.Close()

	app, err := web.New(web.Options{
		DB:                svc.db,
		Catalog:           svc.catalog,
		Images:            svc.images,
		Logger:            shared.WithLogger(r.logger, "component", "web"),
		Production:        config.Server.Production,
		AllowedExtensions: config.Media.AllowedExtensions,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Addr(), err)
	}

	url := "http://" + ln.Addr().String()
	r.logger.Info("serving catalogue", "url", url, "publisher", svc.publisher.Backend(), "production", config.Server.Production)

	if cmd.Bool("open") {
		if err := r.openBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	srv := server.New(config.Addr(), app.Handler(), r.logger)
	return srv.Serve(ctx, ln)
}
