// Package commands defines the CLI surface of the joren binary.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// CLI is the root command with global flags.
type CLI struct {
	Config  string           `short:"c" help:"Site configuration file path" default:"site.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site into the output directory"`
	Serve ServeCmd `cmd:"" help:"Serve the site locally with watch and live reload"`
	Check CheckCmd `cmd:"" help:"Build the site and verify internal links"`
	Init  InitCmd  `cmd:"" help:"Write a starter site.yaml"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
