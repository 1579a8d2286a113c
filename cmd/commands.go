// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cancionero/internal/formatter"
	"github.com/desertthunder/cancionero/internal/tasks"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func formatFlag(value string) cli.Flag {
	names := make([]string, 0, len(formatter.Formats))
	for _, f := range formatter.Formats {
		names = append(names, string(f))
	}
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: " + strings.Join(names, ", "),
		Value:   value,
	}
}

// setupCommand prepares config, storage and schema
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file, upload directory and database schema",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// serveCommand runs the web application
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web application",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the catalogue in the default browser",
			},
		},
		Action: r.Serve,
	}
}

// songsCommand handles catalogue operations from the terminal
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "songs",
		Aliases: []string{"s"},
		Usage:   "Song catalogue operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List one page of songs, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Filter by title or lyrics",
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number",
						Value: 1,
					},
					formatFlag(string(formatter.FormatText)),
				},
				Action: r.SongsList,
			},
			{
				Name:  "export",
				Usage: "Export the whole catalogue to a file",
				Flags: []cli.Flag{
					configFlag(),
					formatFlag(string(formatter.FormatCSV)),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (defaults to canciones.<ext>)",
					},
				},
				Action: r.SongsExport,
			},
			{
				Name:  "publish",
				Usage: "Publish song photos to the configured media host",
				Flags: []cli.Flag{
					configFlag(),
					&cli.Int64Flag{
						Name:  "id",
						Usage: "Song ID",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Publish every photo that has no remote copy yet",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent uploads with --all",
						Value:   tasks.DefaultWorkers,
					},
				},
				Action: r.SongsPublish,
			},
		},
	}
}
