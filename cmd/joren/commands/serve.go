package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/jorenvanhee/joren.co/internal/config"
	"github.com/jorenvanhee/joren.co/internal/server"
)

// ServeCmd implements the 'serve' command: the local preview loop.
type ServeCmd struct {
	Addr         string        `short:"a" help:"Listen address" default:"localhost:8080"`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Periodic rebuild interval so scheduled posts publish (0 disables)" default:"0"`
	Metrics      bool          `help:"Expose Prometheus metrics at /metrics"`
}

func (s *ServeCmd) Run(root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := server.Options{
		Addr:         s.Addr,
		RebuildEvery: s.RebuildEvery,
	}
	if s.Metrics {
		opts.Registry = prom.NewRegistry()
	}
	return server.New(cfg, opts).Run(ctx)
}
