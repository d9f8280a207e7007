// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles database initialization and config bootstrap.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "rollback",
				Usage: "Roll back the most recent database migration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupRollback,
			},
		},
	}
}

// syncCommand runs full library synchronization.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize the remote library into the local store",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Fetch, reconcile and update the mirror playlist",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-mirror",
						Usage: "Skip the mirror playlist update",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SyncRun,
			},
		},
	}
}

// libraryCommand inspects the local store.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect the local library mirror",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "List stored tracks",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write tracks to a CSV file instead of stdout",
					},
				},
				Action: r.LibraryTracks,
			},
			{
				Name:  "playlists",
				Usage: "List stored playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.LibraryPlaylists,
			},
			{
				Name:  "stats",
				Usage: "Show library row counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LibraryStats,
			},
		},
	}
}

// mirrorCommand manages the aggregate mirror playlist.
func mirrorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mirror",
		Usage: "Manage the aggregate mirror playlist",
		Commands: []*cli.Command{
			{
				Name:  "push",
				Usage: "Push missing library tracks to the remote mirror playlist",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.MirrorPush,
			},
			{
				Name:   "status",
				Usage:  "Show how many library tracks the mirror is missing",
				Action: r.MirrorStatus,
			},
		},
	}
}
