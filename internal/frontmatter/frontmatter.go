// Package frontmatter splits YAML front matter from Markdown documents and
// decodes it into typed post metadata.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Meta is the typed front matter of a content document.
type Meta struct {
	Layout      string   `yaml:"layout"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Date        string   `yaml:"date"`
	Hidden      bool     `yaml:"hidden"`
	Tags        []string `yaml:"tags"`
}

// Split separates YAML front matter (`---` delimited) from the Markdown body.
//
// If the document does not start with a front matter delimiter, had is false
// and body is the full input. A start delimiter without a closing delimiter
// is an error: the build must not silently publish a document whose metadata
// leaked into the body.
func Split(content []byte) (meta []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		// Empty front matter block.
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	metaEnd := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return content[start:metaEnd], content[bodyStart:], true, nil
}

// Parse splits content and decodes the front matter block into Meta.
// Malformed YAML is an error; an absent block yields a zero Meta.
func Parse(content []byte) (Meta, []byte, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Meta{}, nil, err
	}
	if !had || len(bytes.TrimSpace(raw)) == 0 {
		return Meta{}, body, nil
	}

	var meta Meta
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("parse front matter: %w", err)
	}
	return meta, body, nil
}

// ParseMap decodes the front matter block into an untyped map for callers
// that need fields beyond Meta (layout files, template data).
func ParseMap(content []byte) (map[string]any, []byte, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return nil, nil, err
	}
	if !had || len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, body, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, nil, fmt.Errorf("parse front matter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, body, nil
}

// Time parses the Date field. Supported formats are 2006-01-02 and RFC 3339.
// An empty date returns the zero time without error.
func (m Meta) Time() (time.Time, error) {
	if m.Date == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", m.Date); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, m.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse front matter date %q: %w", m.Date, err)
	}
	return t, nil
}

func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
