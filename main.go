package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/sadopc/baralga/internal/app"
	"github.com/sadopc/baralga/internal/config"
)

func open(cmd *cli.Command) (*app.Env, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return app.Open(app.WithConfig(cfg))
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	env, err := open(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.RunTUI(ctx); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func exportCommand(name, ext, usage string, fn func(*app.Env, context.Context, string) error) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file (default: export dir with a dated name)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.String("out")
			if out == "" {
				if name == "xml" {
					out = env.BackupPath()
				} else {
					out = filepath.Join(env.Config.Export.Dir,
						fmt.Sprintf("baralga-export-%s.%s", time.Now().Format("2006-01-02"), ext))
				}
			}
			if err := fn(env, ctx, out); err != nil {
				return fmt.Errorf("export %s: %w", name, err)
			}
			fmt.Fprintln(os.Stdout, out)
			return nil
		},
	}
}

func importBackup(ctx context.Context, cmd *cli.Command) error {
	env, err := open(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	path := cmd.String("file")
	if path == "" {
		path = env.BackupPath()
	}
	b, err := env.Import(path)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Fprintf(os.Stdout, "imported %d projects and %d activities\n", len(b.Projects), len(b.Activities))
	return nil
}

func showState(ctx context.Context, cmd *cli.Command) error {
	env, err := open(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if cmd.Bool("clear") {
		if err := env.ClearState(); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
		fmt.Fprintln(os.Stdout, "state cleared")
		return nil
	}

	entries, err := env.Store.Keys()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%-20s %8d bytes  %s\n", e.Key, e.Size, e.UpdatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "baralga",
		Usage:  "Terminal client for the Baralga time tracking backend",
		Action: runTUI,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "$XDG_CONFIG_HOME/baralga/config.yaml",
				Value:       config.DefaultPath(),
				Sources:     cli.EnvVars("BARALGA_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "Start the terminal UI (default)",
				Action: runTUI,
			},
			{
				Name:  "export",
				Usage: "Export activities or a backup",
				Commands: []*cli.Command{
					exportCommand("csv", "csv", "Export the activities of the current filter as CSV", (*app.Env).ExportCSV),
					exportCommand("json", "json", "Export the activities of the current filter as JSON", (*app.Env).ExportJSON),
					exportCommand("xml", "xml", "Write an XML backup of projects and activities", (*app.Env).ExportXML),
				},
			},
			{
				Name:  "import",
				Usage: "Import an XML backup into the local state",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Backup file (default: configured backup file)",
					},
				},
				Action: importBackup,
			},
			{
				Name:  "state",
				Usage: "List the persisted client state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Delete all persisted state",
					},
				},
				Action: showState,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		log.Error().Err(err).Msg("application error")
		os.Exit(1)
	}
}
