// Package layouts resolves symbolic layout names to template files and
// renders pages through them, supporting front-matter layout chaining
// (a post renders inside post.html, which wraps itself in default.html).
package layouts

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/jorenvanhee/joren.co/internal/frontmatter"
)

// maxChainDepth bounds layout chaining so alias cycles fail instead of
// looping.
const maxChainDepth = 10

// Site is the site-wide data exposed to templates as .Site.
type Site struct {
	Title       string
	Description string
	Author      string
	BaseURL     string
	Language    string
	Env         string
}

// Page is the per-page data exposed to templates as .Page and as the
// elements of .Posts.
type Page struct {
	Title       string
	Description string
	Permalink   string
	Date        time.Time
	Lastmod     time.Time
	Tags        []string
	Fields      map[string]any
}

// Data is the root template context.
type Data struct {
	Site    Site
	Page    Page
	Posts   []Page
	Content template.HTML
}

// Engine loads layout templates once and renders pages through them.
type Engine struct {
	dir     string
	aliases map[string]string
	funcs   template.FuncMap
	cache   map[string]*layout
}

type layout struct {
	tmpl *template.Template
	// parent is the alias this layout chains to, from its own front matter.
	parent string
}

// NewEngine creates an Engine over the layouts directory with the given
// alias table and template funcs.
func NewEngine(dir string, aliases map[string]string, funcs template.FuncMap) *Engine {
	return &Engine{
		dir:     dir,
		aliases: aliases,
		funcs:   funcs,
		cache:   map[string]*layout{},
	}
}

// Render renders data through the layout chain starting at alias.
// An alias missing from the table is fatal: an unresolved layout must stop
// the build.
func (e *Engine) Render(alias string, data Data) ([]byte, error) {
	for depth := 0; ; depth++ {
		if depth >= maxChainDepth {
			return nil, fmt.Errorf("layout chain starting at %q exceeds depth %d (alias cycle?)", alias, maxChainDepth)
		}

		l, err := e.load(alias)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := l.tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("execute layout %q: %w", alias, err)
		}

		if l.parent == "" {
			return buf.Bytes(), nil
		}
		data.Content = template.HTML(buf.String())
		alias = l.parent
	}
}

func (e *Engine) load(alias string) (*layout, error) {
	if l, ok := e.cache[alias]; ok {
		return l, nil
	}

	file, ok := e.aliases[alias]
	if !ok {
		return nil, fmt.Errorf("layout alias %q not found in alias table", alias)
	}

	path := filepath.Join(e.dir, file)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %q: %w", alias, err)
	}

	// Layout files may carry front matter naming their own outer layout.
	fields, body, err := frontmatter.ParseMap(raw)
	if err != nil {
		return nil, fmt.Errorf("layout %q: %w", alias, err)
	}
	parent, _ := fields["layout"].(string)

	tmpl, err := template.New(file).Funcs(e.funcs).Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse layout %q: %w", alias, err)
	}
	if partials, _ := filepath.Glob(filepath.Join(e.dir, "partials", "*.html")); len(partials) > 0 {
		if tmpl, err = tmpl.ParseFiles(partials...); err != nil {
			return nil, fmt.Errorf("parse partials for layout %q: %w", alias, err)
		}
	}

	l := &layout{tmpl: tmpl, parent: parent}
	e.cache[alias] = l
	return l, nil
}
