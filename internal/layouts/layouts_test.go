package layouts

import (
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeLayout(t *testing.T, dir, name, data string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
}

func defaultAliases() map[string]string {
	return map[string]string{
		"default": "default.html",
		"post":    "post.html",
	}
}

func TestRender_AliasesResolveToConfiguredFiles(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "default.html", "<html><body>{{.Content}}</body></html>")
	writeLayout(t, dir, "post.html", "<article>{{.Content}}</article>")
	e := NewEngine(dir, defaultAliases(), nil)

	out, err := e.Render("default", Data{Content: template.HTML("<p>hi</p>")})
	require.NoError(t, err)
	require.Equal(t, "<html><body><p>hi</p></body></html>", string(out))

	out, err = e.Render("post", Data{Content: template.HTML("<p>hi</p>")})
	require.NoError(t, err)
	require.Equal(t, "<article><p>hi</p></article>", string(out))
}

func TestRender_UnknownAlias_Fails(t *testing.T) {
	e := NewEngine(t.TempDir(), defaultAliases(), nil)

	_, err := e.Render("gallery", Data{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `"gallery"`)
}

func TestRender_LayoutChaining_WrapsPostInDefault(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "default.html", "<html><title>{{.Page.Title}}</title><body>{{.Content}}</body></html>")
	writeLayout(t, dir, "post.html", "---\nlayout: default\n---\n<article>{{.Content}}</article>")
	e := NewEngine(dir, defaultAliases(), nil)

	out, err := e.Render("post", Data{
		Page:    Page{Title: "Two cats"},
		Content: template.HTML("<p>cats</p>"),
	})
	require.NoError(t, err)
	require.Equal(t, "<html><title>Two cats</title><body><article><p>cats</p></article></body></html>", string(out))
}

func TestRender_AliasCycle_Fails(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "a.html", "---\nlayout: b\n---\n{{.Content}}")
	writeLayout(t, dir, "b.html", "---\nlayout: a\n---\n{{.Content}}")
	e := NewEngine(dir, map[string]string{"a": "a.html", "b": "b.html"}, nil)

	_, err := e.Render("a", Data{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "depth")
}

func TestRender_TemplateFuncsAvailable(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "default.html", `<link href="{{cssHref}}">`)
	funcs := template.FuncMap{
		"cssHref": func() string { return "/css/site.css" },
	}
	e := NewEngine(dir, defaultAliases(), funcs)

	out, err := e.Render("default", Data{})
	require.NoError(t, err)
	require.Equal(t, `<link href="/css/site.css">`, string(out))
}

func TestRender_PartialsParsedIntoLayouts(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "default.html", `<body>{{template "nav.html" .}}{{.Content}}</body>`)
	writeLayout(t, dir, "partials/nav.html", `<nav>{{.Site.Title}}</nav>`)
	e := NewEngine(dir, defaultAliases(), nil)

	out, err := e.Render("default", Data{Site: Site{Title: "joren.co"}})
	require.NoError(t, err)
	require.Equal(t, "<body><nav>joren.co</nav></body>", string(out))
}

func TestRender_MissingLayoutFile_Fails(t *testing.T) {
	e := NewEngine(t.TempDir(), defaultAliases(), nil)

	_, err := e.Render("default", Data{})
	require.Error(t, err)
}
