package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/zk/internal"
	"github.com/starford/zk/internal/gitsync"
	pkgconfig "github.com/starford/zk/pkg/config"
)

var version = "dev"

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "zk", "config.yaml")
}

// withApp loads the configuration, builds the application and hands it to fn.
func withApp(fn func(ctx context.Context, cmd *cli.Command, app *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg := internal.NewDefaultConfig()
		if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		if cmd.IsSet("zk") {
			cfg.ZK.Path = cmd.String("zk")
		}

		app, err := internal.New(
			internal.WithConfig(cfg),
			internal.WithVersion(version),
		)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(ctx, cmd, app)
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "zk",
		Usage:   "Manage your notes using a zettelkasten",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to config file",
				Value:   defaultConfigPath(),
				Sources: cli.EnvVars("ZK_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "zk",
				Aliases: []string{"Z"},
				Usage:   "Path to the zettelkasten directory",
				Sources: cli.EnvVars("ZK_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "edit",
				Usage:     "Edit the contents of a zettel, creating it if it doesn't exist yet",
				ArgsUsage: "[ID]",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					return app.Edit(ctx, cmd.Args().First())
				}),
			},
			{
				Name:      "_prepare",
				Hidden:    true,
				ArgsUsage: "[ID]",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					return app.Prepare(ctx, cmd.Args().First())
				}),
			},
			{
				Name:  "sync",
				Usage: "Commit any changes then merge any changes from the remote",
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
					return app.Sync(ctx)
				}),
			},
			{
				Name:  "sh",
				Usage: "Drop into an interactive shell within the zettelkasten",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "c", Usage: "Run `COMMAND` instead of an interactive shell"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					return app.Shell(ctx, cmd.String("c"))
				}),
			},
			{
				Name:      "new",
				Usage:     "Create a zettel that must not exist yet",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Zettel title (defaults to the id)"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					if cmd.Args().Len() != 1 {
						return errors.New("new: expected exactly one ID")
					}
					return app.NewZettel(ctx, cmd.Args().First(), cmd.String("title"))
				}),
			},
			{
				Name:      "rename",
				Usage:     "Rename a zettel and rewrite every citation of it",
				ArgsUsage: "OLD NEW",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					if cmd.Args().Len() != 2 {
						return errors.New("rename: expected OLD and NEW ids")
					}
					return app.Rename(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
				}),
			},
			{
				Name:  "graph",
				Usage: "Check the citation graph for dangling references and orphans",
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
					return app.Graph(ctx)
				}),
			},
			{
				Name:      "refs",
				Usage:     "List the zettels a zettel cites and is cited by",
				ArgsUsage: "[ID]",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					return app.Refs(ctx, cmd.Args().First())
				}),
			},
			{
				Name:      "search",
				Usage:     "Full-text search across zettels",
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum number of results"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					if !cmd.Args().Present() {
						return errors.New("search: QUERY is required")
					}
					return app.Search(ctx, cmd.Args().First(), int(cmd.Int("limit")))
				}),
			},
			{
				Name:  "reindex",
				Usage: "Bring the search index up to date",
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
					return app.Reindex(ctx)
				}),
			},
			{
				Name:  "serve",
				Usage: "Serve the REST API and keep the index fresh",
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
					return app.Serve(ctx)
				}),
			},
			{
				Name:  "mcp",
				Usage: "Serve MCP tools over stdio",
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
					return app.MCP(ctx)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		var cmdErr *gitsync.CommandError
		if errors.As(err, &cmdErr) {
			slog.Error("a subcommand failed",
				slog.String("command", cmdErr.Command.String()),
				slog.Int("exit_code", cmdErr.Result.ExitCode))
			if out := cmdErr.Result.Output(); out != "" {
				fmt.Fprintln(os.Stderr, out)
			}
			os.Exit(1)
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
