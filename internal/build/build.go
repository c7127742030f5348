// Package build orchestrates the full site build: content loading, page
// rendering, stylesheet compilation, static assets, and feeds, executed as
// a fail-fast stage pipeline.
package build

import (
	"context"
	"html/template"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jorenvanhee/joren.co/internal/config"
	"github.com/jorenvanhee/joren.co/internal/content"
	"github.com/jorenvanhee/joren.co/internal/gitinfo"
	"github.com/jorenvanhee/joren.co/internal/images"
	"github.com/jorenvanhee/joren.co/internal/layouts"
	"github.com/jorenvanhee/joren.co/internal/markdown"
	"github.com/jorenvanhee/joren.co/internal/metrics"
)

// Builder runs site builds for one configuration.
type Builder struct {
	cfg *config.Config
	rec metrics.Recorder
}

// New returns a Builder. A nil recorder disables metrics.
func New(cfg *config.Config, rec metrics.Recorder) *Builder {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, rec: rec}
}

// State carries mutable data across stages of a single build.
type State struct {
	Config *config.Config
	Report *Report
	// Now is the build timestamp; future-dated posts are filtered against it.
	Now time.Time

	// Docs is every Markdown document under the content directory.
	Docs []*content.Document
	// Posts is the published blog collection, newest first.
	Posts []*content.Document

	git    *gitinfo.Info
	md     *markdown.Renderer
	imgs   *images.Renderer
	layout *layouts.Engine

	// html holds each document's rendered body for feed generation.
	html map[*content.Document][]byte
}

// Run executes one full build. The returned Report is non-nil even on error.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	buildID := uuid.NewString()
	report := newReport(buildID)
	slog.Info("Build starting", "build_id", buildID, "env", b.cfg.Env)

	cache, err := images.OpenCache(filepath.Join(b.cfg.CacheDir(), "images.db"))
	if err != nil {
		report.finish(err, false)
		b.rec.IncBuildOutcome(string(report.Outcome))
		return report, err
	}
	defer func() {
		if cerr := cache.Close(); cerr != nil {
			slog.Warn("Closing image cache failed", "error", cerr)
		}
	}()

	imgs := images.NewRenderer(images.Options{
		SourceDir: b.cfg.AssetsDir(),
		OutputDir: b.cfg.OutputDir(),
		Subdir:    b.cfg.Images.Dir,
		StoreDir:  filepath.Join(b.cfg.CacheDir(), "img"),
		Widths:    b.cfg.Images.Widths,
		Quality:   b.cfg.Images.Quality,
		Cache:     cache,
	})

	md := markdown.NewRenderer()
	shortcode := imageShortcode(ctx, imgs)
	md.Register("image", shortcode)

	funcs := templateFuncs(b.cfg)
	// Layouts can place images too, outside any Markdown body.
	funcs["image"] = func(src, alt, sizes string) (template.HTML, error) {
		out, err := shortcode(map[string]string{"src": src, "alt": alt, "sizes": sizes})
		return template.HTML(out), err
	}

	st := &State{
		Config: b.cfg,
		Report: report,
		Now:    time.Now(),
		md:     md,
		imgs:   imgs,
		layout: layouts.NewEngine(b.cfg.LayoutsDir(), b.cfg.Layout.Aliases, funcs),
		html:   map[*content.Document][]byte{},
	}

	stages := []StageDef{
		{Name: StagePrepareOutput, Fn: stagePrepareOutput},
		{Name: StageLoadContent, Fn: stageLoadContent},
		{Name: StageRenderPages, Fn: stageRenderPages},
		{Name: StageCompileCSS, Fn: stageCompileCSS},
		{Name: StageCopyStatic, Fn: stageCopyStatic},
		{Name: StageWriteFeeds, Fn: stageWriteFeeds},
	}

	err = runStages(ctx, st, stages, b.rec)
	report.ImageVariants = imgs.Encoded()
	report.finish(err, ctx.Err() != nil)

	b.rec.ObserveBuildDuration(report.Duration())
	b.rec.IncBuildOutcome(string(report.Outcome))
	b.rec.AddPagesRendered(report.PagesRendered)
	b.rec.AddImageVariantsEncoded(report.ImageVariants)

	if err != nil {
		slog.Error("Build failed", "build_id", buildID, "duration", report.Duration(), "error", err)
		return report, err
	}
	slog.Info("Build complete",
		"build_id", buildID,
		"duration", report.Duration(),
		"pages", report.PagesRendered,
		"image_variants", report.ImageVariants)
	return report, nil
}

// imageShortcode adapts the image renderer to the shortcode interface.
// sizes defaults to the full viewport when the author omits it.
func imageShortcode(ctx context.Context, r *images.Renderer) markdown.ShortcodeFunc {
	return func(attrs map[string]string) (string, error) {
		src := attrs["src"]
		if src == "" {
			return "", errMissingAttr("image", "src")
		}
		sizes := attrs["sizes"]
		if sizes == "" {
			sizes = "100vw"
		}
		return r.Render(ctx, src, attrs["alt"], sizes)
	}
}
