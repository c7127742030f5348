// Package markdown renders post bodies to HTML: shortcode expansion first,
// then goldmark with GFM and syntax highlighting.
package markdown

import (
	"bytes"
	"fmt"

	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown bodies to HTML.
type Renderer struct {
	md         goldmark.Markdown
	shortcodes map[string]ShortcodeFunc
}

// NewRenderer builds the site's Markdown renderer. Raw HTML passthrough is
// enabled because expanded shortcodes inject markup into the body before
// goldmark runs.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Renderer{
		md:         md,
		shortcodes: map[string]ShortcodeFunc{},
	}
}

// Register adds a named shortcode handler.
func (r *Renderer) Register(name string, fn ShortcodeFunc) {
	r.shortcodes[name] = fn
}

// Render expands shortcodes in body and converts the result to HTML.
// An unknown shortcode name or a failing handler aborts the render: a
// broken reference must break the build, not ship silently.
func (r *Renderer) Render(body []byte) ([]byte, error) {
	expanded, err := expandShortcodes(body, r.shortcodes)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.md.Convert(expanded, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
