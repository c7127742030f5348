package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jorenvanhee/joren.co/internal/build"
	"github.com/jorenvanhee/joren.co/internal/config"
	"github.com/jorenvanhee/joren.co/internal/linkcheck"
)

// CheckCmd builds the site and verifies that every internal link resolves
// to a file in the output.
type CheckCmd struct{}

func (k *CheckCmd) Run(root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := build.New(cfg, nil).Run(ctx); err != nil {
		return err
	}

	issues, err := linkcheck.Check(cfg.OutputDir())
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		for _, issue := range issues {
			fmt.Println(issue.String())
		}
		return fmt.Errorf("%d broken internal links", len(issues))
	}
	fmt.Println("All internal links resolve")
	return nil
}
