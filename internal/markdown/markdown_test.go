package markdown

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_PlainMarkdown_ProducesHTML(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render([]byte("# Hello\n\nSome *emphasis*.\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "<h1 id=\"hello\">Hello</h1>")
	require.Contains(t, string(out), "<em>emphasis</em>")
}

func TestRender_FencedCodeBlock_Highlighted(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render([]byte("```go\nfmt.Println(\"hi\")\n```\n"))
	require.NoError(t, err)
	// chroma wraps highlighted blocks in pre tags with inline styles
	require.Contains(t, string(out), "<pre")
	require.Contains(t, string(out), "Println")
}

func TestRender_RegisteredShortcode_Expanded(t *testing.T) {
	r := NewRenderer()
	r.Register("image", func(attrs map[string]string) (string, error) {
		return fmt.Sprintf(`<img src=%q alt=%q>`, attrs["src"], attrs["alt"]), nil
	})

	out, err := r.Render([]byte(`Before

{{< image src="cats.jpg" alt="Two cats" >}}

After`))
	require.NoError(t, err)
	require.Contains(t, string(out), `<img src="cats.jpg" alt="Two cats">`)
	require.Contains(t, string(out), "Before")
	require.Contains(t, string(out), "After")
}

func TestRender_ShortcodeCalledTwice_IdenticalOutput(t *testing.T) {
	r := NewRenderer()
	r.Register("image", func(attrs map[string]string) (string, error) {
		return `<img src="/img/cats-400w.jpg">`, nil
	})
	body := []byte(`{{< image src="cats.jpg" alt="x" sizes="100vw" >}}`)

	first, err := r.Render(body)
	require.NoError(t, err)
	second, err := r.Render(body)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRender_UnknownShortcode_Fails(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render([]byte(`{{< gallery dir="pics" >}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "gallery")
}

func TestRender_ShortcodeHandlerError_Propagates(t *testing.T) {
	r := NewRenderer()
	r.Register("image", func(attrs map[string]string) (string, error) {
		return "", fmt.Errorf("source not found: %s", attrs["src"])
	})

	_, err := r.Render([]byte(`{{< image src="missing.jpg" alt="x" >}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing.jpg")
}

func TestRender_ShortcodeInsideCodeFence_LeftVerbatim(t *testing.T) {
	r := NewRenderer()
	// No handler registered; the fenced occurrence must not be treated
	// as an invocation.
	out, err := r.Render([]byte("```\n{{< image src=\"cats.jpg\" >}}\n```\n"))
	require.NoError(t, err)
	require.Contains(t, string(out), "image")
}

func TestRender_MalformedShortcode_Fails(t *testing.T) {
	r := NewRenderer()
	r.Register("image", func(map[string]string) (string, error) { return "", nil })

	_, err := r.Render([]byte(`{{< image src="unterminated >}}` + "\n"))
	require.Error(t, err)
}
