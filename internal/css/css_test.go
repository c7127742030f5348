package css

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jorenvanhee/joren.co/internal/config"
)

func testTheme() config.ThemeConfig {
	return config.ThemeConfig{
		Breakpoints: map[string]string{"md": "760px", "lg": "1024px"},
		Spacing:     map[string]string{"0": "0", "1": "0.25rem", "4": "1rem"},
		Colors: map[string]map[string]string{
			"gray": {"100": "#f7f7f7", "700": "#3f3f46"},
		},
		FontSizes: map[string]string{"sm": "0.875rem", "lg": "1.125rem"},
	}
}

func writeSource(t *testing.T, dir, rel, data string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func TestInlineImports_ReplacesImportWithFileContent(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "reset.css", "* { margin: 0; }\n")
	entry := []byte("@import \"reset.css\";\nbody { color: red; }\n")

	out, err := inlineImports(entry, dir)
	require.NoError(t, err)
	require.Contains(t, string(out), "* { margin: 0; }")
	require.Contains(t, string(out), "body { color: red; }")
	require.NotContains(t, string(out), "@import")
}

func TestInlineImports_Nested_ResolvesRelativeToImportingFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "base/inner.css", "h1 { font-weight: 700; }\n")
	writeSource(t, dir, "base/outer.css", "@import \"inner.css\";\n")
	entry := []byte("@import \"base/outer.css\";\n")

	out, err := inlineImports(entry, dir)
	require.NoError(t, err)
	require.Contains(t, string(out), "font-weight: 700")
}

func TestInlineImports_MissingFile_Fails(t *testing.T) {
	_, err := inlineImports([]byte("@import \"ghost.css\";\n"), t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "ghost.css")
}

func TestInlineImports_Cycle_Fails(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.css", "@import \"b.css\";\n")
	writeSource(t, dir, "b.css", "@import \"a.css\";\n")

	_, err := inlineImports([]byte("@import \"a.css\";\n"), dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
}

func TestGenerateUtilities_EmitsOnlyUsedClasses(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "layouts/post.html", `<article class="mt-4 text-gray-700">x</article>`)
	globs := []string{filepath.Join(dir, "layouts", "**", "*.html")}

	out, err := generateUtilities([]byte("@utilities;\n"), testTheme(), globs)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, ".mt-4 {")
	require.Contains(t, s, "margin-top: 1rem;")
	require.Contains(t, s, ".text-gray-700 {")
	require.Contains(t, s, "color: #3f3f46;")
	// Tokens exist for these but nothing uses them.
	require.NotContains(t, s, ".mb-4")
	require.NotContains(t, s, ".text-gray-100")
}

func TestGenerateUtilities_ResponsiveVariantsWrappedInMedia(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "layouts/default.html", `<div class="px-1 md:px-4 lg:text-lg">x</div>`)
	globs := []string{filepath.Join(dir, "layouts", "*.html")}

	out, err := generateUtilities([]byte("@utilities;\n"), testTheme(), globs)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, "@media (min-width: 760px) {")
	require.Contains(t, s, `.md\:px-4 {`)
	require.Contains(t, s, "@media (min-width: 1024px) {")
	require.Contains(t, s, `.lg\:text-lg {`)
	require.Contains(t, s, "font-size: 1.125rem;")
}

func TestGenerateUtilities_UnknownClassesIgnored(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "layouts/a.html", `<div class="hero wrapper mt-9000">x</div>`)
	globs := []string{filepath.Join(dir, "layouts", "*.html")}

	out, err := generateUtilities([]byte("@utilities;\n"), testTheme(), globs)
	require.NoError(t, err)
	require.Equal(t, "\n", string(out))
}

func TestGenerateUtilities_NoMarker_NoOp(t *testing.T) {
	in := []byte("body { color: red; }\n")
	out, err := generateUtilities(in, testTheme(), nil)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestGenerateUtilities_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "layouts/a.html", `<div class="mt-4 mb-0 px-1 md:mt-0 text-sm bg-gray-100">x</div>`)
	globs := []string{filepath.Join(dir, "layouts", "*.html")}

	first, err := generateUtilities([]byte("@utilities;"), testTheme(), globs)
	require.NoError(t, err)
	second, err := generateUtilities([]byte("@utilities;"), testTheme(), globs)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFlattenNesting_AmpersandAndDescendant(t *testing.T) {
	in := []byte(`.card {
  color: black;
  &:hover { color: blue; }
  a { text-decoration: underline; }
}`)

	out, err := flattenNesting(in)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, ".card {\n  color: black;\n}")
	require.Contains(t, s, ".card:hover {\n  color: blue;\n}")
	require.Contains(t, s, ".card a {\n  text-decoration: underline;\n}")
}

func TestFlattenNesting_MediaBlockPreserved(t *testing.T) {
	in := []byte(`@media (min-width: 760px) {
  .wrapper { max-width: 720px; }
}`)

	out, err := flattenNesting(in)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, "@media (min-width: 760px) {")
	require.Contains(t, s, ".wrapper {\n    max-width: 720px;\n  }")
}

func TestFlattenNesting_MediaNestedInsideRule(t *testing.T) {
	in := []byte(`.wrapper {
  padding: 1rem;
  @media (min-width: 760px) {
    padding: 2rem;
  }
}`)

	out, err := flattenNesting(in)
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, ".wrapper {\n  padding: 1rem;\n}")
	require.Contains(t, s, "@media (min-width: 760px) {")
	require.Contains(t, s, ".wrapper {\n    padding: 2rem;\n  }")
}

func TestFlattenNesting_UnbalancedBraces_Fails(t *testing.T) {
	_, err := flattenNesting([]byte(".a { color: red;"))
	require.Error(t, err)
}

func TestPipeline_ProductionOutputNotLarger(t *testing.T) {
	dir := t.TempDir()
	entry := []byte(`body {
  margin: 0;
  font-family: sans-serif;
}

.card {
  padding: 1rem;
  & h2 { margin-top: 0; }
}
`)

	dev := NewPipeline(Options{BaseDir: dir, Minify: false})
	devOut, err := dev.Run(entry)
	require.NoError(t, err)

	prod := NewPipeline(Options{BaseDir: dir, Minify: true})
	prodOut, err := prod.Run(entry)
	require.NoError(t, err)

	require.LessOrEqual(t, len(prodOut), len(devOut))
	// The development chain keeps readable whitespace.
	require.Contains(t, string(devOut), "\n")
	require.NotContains(t, string(prodOut), "\n  ")
}

func TestPipeline_DeterministicForFixedInputs(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "reset.css", "* { box-sizing: border-box; }\n")
	entry := []byte("@import \"reset.css\";\n@utilities;\nbody { margin: 0; }\n")

	p := NewPipeline(Options{BaseDir: dir, Theme: testTheme(), Minify: false})
	first, err := p.Run(entry)
	require.NoError(t, err)
	second, err := p.Run(entry)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
