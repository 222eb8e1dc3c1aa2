package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/meghashyamc/findlines/api"
	"github.com/meghashyamc/findlines/config"
	"github.com/urfave/cli/v2"
)

func main() {
	// a missing .env file is fine, the environment may be set already
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "findlines",
		Usage: "Find files by name and the lines inside them that match a pattern",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Config environment, selects config/config.<env>.yaml",
				EnvVars: []string{"ENV"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
			},
			{
				Name:      "grep",
				Aliases:   []string{"g"},
				Usage:     "Search the lines of the matching files for a pattern",
				ArgsUsage: "<pattern>",
				Flags:     append(filterFlags(), grepFlags()...),
				Action:    grepCommand,
			},
			{
				Name:   "files",
				Usage:  "List the files matching the file filter",
				Flags:  append(filterFlags(), &cli.IntFlag{Name: "limit", Usage: "Stop after this many files, 0 for no limit"}),
				Action: filesCommand,
			},
		},
		Action: serveCommand,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	return api.Run(c.Context, cfg)
}
