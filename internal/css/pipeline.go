// Package css compiles the site stylesheet through a fixed chain of
// source-to-source transforms: import inlining, utility-class generation,
// nesting desugaring, and (in production) minification.
package css

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jorenvanhee/joren.co/internal/config"
)

// Stage is a single named stylesheet transform.
type Stage struct {
	Name string
	Fn   func(input []byte) ([]byte, error)
}

// Pipeline runs stages in a fixed order. The chain is deterministic for a
// given input set and environment flag.
type Pipeline struct {
	stages []Stage
}

// Options configures the pipeline chain.
type Options struct {
	// BaseDir resolves relative @import paths of the entry file.
	BaseDir string
	// Theme supplies the tokens the utility generator draws from.
	Theme config.ThemeConfig
	// ContentGlobs are scanned for utility class usage.
	ContentGlobs []string
	// Minify enables the final minification stage (production builds).
	Minify bool
}

// NewPipeline assembles the standard chain for the given options.
func NewPipeline(opts Options) *Pipeline {
	stages := []Stage{
		{Name: "imports", Fn: func(in []byte) ([]byte, error) {
			return inlineImports(in, opts.BaseDir)
		}},
		{Name: "utilities", Fn: func(in []byte) ([]byte, error) {
			return generateUtilities(in, opts.Theme, opts.ContentGlobs)
		}},
		{Name: "nesting", Fn: flattenNesting},
	}
	if opts.Minify {
		stages = append(stages, Stage{Name: "minify", Fn: minifyCSS})
	}
	return &Pipeline{stages: stages}
}

// Run feeds input through every stage, stopping at the first error.
func (p *Pipeline) Run(input []byte) ([]byte, error) {
	out := input
	for _, st := range p.stages {
		t0 := time.Now()
		var err error
		out, err = st.Fn(out)
		if err != nil {
			return nil, fmt.Errorf("css stage %s: %w", st.Name, err)
		}
		slog.Debug("CSS stage complete", "stage", st.Name, "duration", time.Since(t0), "bytes", len(out))
	}
	return out, nil
}
