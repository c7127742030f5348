// Package server runs the local preview: it serves the built site, rebuilds
// on source changes, and reloads connected browsers.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/jorenvanhee/joren.co/internal/build"
	"github.com/jorenvanhee/joren.co/internal/config"
	"github.com/jorenvanhee/joren.co/internal/metrics"
)

// quietWindow is how long the watcher waits after the last source change
// before rebuilding.
const quietWindow = 250 * time.Millisecond

// Options configures the preview server.
type Options struct {
	Addr string
	// RebuildEvery triggers periodic rebuilds so future-dated posts appear
	// once their date passes. Zero disables the schedule.
	RebuildEvery time.Duration
	// Registry receives build metrics; /metrics serves it. Nil disables.
	Registry *prom.Registry
}

// Server owns the preview HTTP server, the source watcher, and the rebuild
// schedule.
type Server struct {
	cfg     *config.Config
	builder *build.Builder
	opts    Options
	hub     *Hub

	// buildMu serializes rebuilds from the watcher and the schedule.
	buildMu sync.Mutex
}

// New constructs a Server.
func New(cfg *config.Config, opts Options) *Server {
	var rec metrics.Recorder = metrics.NoopRecorder{}
	if opts.Registry != nil {
		rec = metrics.NewPrometheusRecorder(opts.Registry)
	}
	return &Server{
		cfg:     cfg,
		builder: build.New(cfg, rec),
		opts:    opts,
		hub:     NewHub(),
	}
}

// Run builds the site once, then serves it until ctx is canceled. The first
// build must succeed; later rebuilds log failures and keep serving the last
// good output.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.builder.Run(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("Request", "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	e.GET("/livereload", echo.WrapHandler(s.hub))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.opts.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.HTTPHandler(s.opts.Registry)))
	}
	e.GET("/*", s.servePage)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		dirs := []string{s.cfg.ContentDir(), s.cfg.LayoutsDir(), s.cfg.AssetsDir(), s.cfg.StaticDir()}
		if err := watch(watchCtx, existingDirs(dirs), quietWindow, func() { s.rebuild(ctx, "source change") }); err != nil {
			slog.Error("Watcher failed", "error", err)
		}
	}()

	var sched gocron.Scheduler
	if s.opts.RebuildEvery > 0 {
		var err error
		sched, err = gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		if _, err := sched.NewJob(
			gocron.DurationJob(s.opts.RebuildEvery),
			gocron.NewTask(func() { s.rebuild(ctx, "schedule") }),
			gocron.WithName("periodic-rebuild"),
		); err != nil {
			return fmt.Errorf("schedule rebuild: %w", err)
		}
		sched.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(s.opts.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	slog.Info("Preview server running", "addr", s.opts.Addr, "output", s.cfg.OutputDir())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.Shutdown()
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown failed", "error", err)
		}
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutCtx)
}

// rebuild runs one build and notifies browsers on success.
func (s *Server) rebuild(ctx context.Context, reason string) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	slog.Info("Rebuilding", "reason", reason)
	report, err := s.builder.Run(ctx)
	if err != nil {
		slog.Error("Rebuild failed; still serving previous output", "error", err)
		return
	}
	s.hub.Broadcast(report.BuildID)
}

// servePage serves files from the output directory, mapping directory URLs
// to their index.html and injecting the livereload script into HTML.
func (s *Server) servePage(c echo.Context) error {
	p, err := resolvePath(s.cfg.OutputDir(), c.Request().URL.Path)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	if strings.EqualFold(filepath.Ext(p), ".html") {
		data, err := os.ReadFile(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return c.HTML(http.StatusOK, injectReloadScript(string(data)))
	}
	return c.File(p)
}

// resolvePath maps a request path onto a file in root, refusing traversal
// outside it.
func resolvePath(root, urlPath string) (string, error) {
	clean := path.Clean("/" + urlPath)
	p := filepath.Join(root, filepath.FromSlash(clean))
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", os.ErrNotExist
	}

	info, err := os.Stat(p)
	if err == nil && info.IsDir() {
		p = filepath.Join(p, "index.html")
		info, err = os.Stat(p)
	}
	if err != nil || info.IsDir() {
		return "", os.ErrNotExist
	}
	return p, nil
}

// injectReloadScript places the livereload script before </body>, or appends
// it when no closing tag exists.
func injectReloadScript(html string) string {
	if i := strings.LastIndex(html, "</body>"); i >= 0 {
		return html[:i] + reloadScript + "\n" + html[i:]
	}
	return html + reloadScript
}

func existingDirs(dirs []string) []string {
	var out []string
	for _, d := range dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			out = append(out, d)
		}
	}
	return out
}
