package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jorenvanhee/joren.co/internal/build"
	"github.com/jorenvanhee/joren.co/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	report, err := build.New(cfg, nil).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Built %d pages in %s (%s)\n", report.PagesRendered, report.Duration().Round(time.Millisecond), cfg.OutputDir())
	return nil
}
