package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/denkenote/internal"
	pkgconfig "github.com/starford/denkenote/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// loadConfig reads the config file, if present, and applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadIfExists(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found && cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	if cmd.IsSet("content") {
		cfg.Content.Path = cmd.String("content")
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("output") {
		cfg.Site.OutputDir = cmd.String("output")
	}
	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func action(mode internal.Mode) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithMode(mode),
			internal.WithVersion(version),
		}

		if err := internal.Run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}

		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "denkenote",
		Usage:   "Serve a directory of markdown notes as a browsable notebook",
		Version: version,
		Action:  action(internal.ModeServe),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "content",
				Usage:   "Markdown content directory (overrides content.path)",
				Sources: cli.EnvVars("DENKENOTE_CONTENT"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP port (overrides app.http.port)",
				Sources: cli.EnvVars("DENKENOTE_PORT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Static site output directory (overrides site.output_dir)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the notebook over HTTP and re-index on changes (default)",
				Action: action(internal.ModeServe),
			},
			{
				Name:   "generate",
				Usage:  "Write the notebook as a static HTML site",
				Action: action(internal.ModeGenerate),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the notebook to MCP clients over stdio",
				Action: action(internal.ModeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
