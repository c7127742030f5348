package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// ShortcodeFunc renders a shortcode invocation from its named attributes.
// Handlers may block (the image shortcode does, while variants encode).
type ShortcodeFunc func(attrs map[string]string) (string, error)

var (
	shortcodePattern = regexp.MustCompile(`\{\{<\s*([a-zA-Z][\w-]*)((?:\s+[\w-]+="[^"]*")*)\s*>\}\}`)
	attrPattern      = regexp.MustCompile(`([\w-]+)="([^"]*)"`)
)

// expandShortcodes replaces every {{< name key="value" … >}} occurrence with
// its handler's output. Occurrences inside fenced code blocks are left alone
// so posts can show shortcode syntax in examples.
func expandShortcodes(body []byte, handlers map[string]ShortcodeFunc) ([]byte, error) {
	lines := strings.Split(string(body), "\n")
	inFence := false
	var fenceMarker string

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			marker := trimmed[:3]
			if !inFence {
				inFence = true
				fenceMarker = marker
			} else if marker == fenceMarker {
				inFence = false
			}
			continue
		}
		if inFence || !strings.Contains(line, "{{<") {
			continue
		}

		expanded, err := expandLine(line, handlers)
		if err != nil {
			return nil, err
		}
		lines[i] = expanded
	}

	return []byte(strings.Join(lines, "\n")), nil
}

func expandLine(line string, handlers map[string]ShortcodeFunc) (string, error) {
	var firstErr error
	out := shortcodePattern.ReplaceAllStringFunc(line, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := shortcodePattern.FindStringSubmatch(match)
		name := sub[1]

		fn, ok := handlers[name]
		if !ok {
			firstErr = fmt.Errorf("unknown shortcode %q", name)
			return match
		}

		attrs := map[string]string{}
		for _, kv := range attrPattern.FindAllStringSubmatch(sub[2], -1) {
			attrs[kv[1]] = kv[2]
		}

		rendered, err := fn(attrs)
		if err != nil {
			firstErr = fmt.Errorf("shortcode %q: %w", name, err)
			return match
		}
		return rendered
	})
	if firstErr != nil {
		return "", firstErr
	}

	// A {{< left on the line that the pattern did not consume means a
	// malformed invocation; fail instead of publishing it verbatim.
	if strings.Contains(out, "{{<") {
		return "", fmt.Errorf("malformed shortcode invocation in line: %s", strings.TrimSpace(line))
	}
	return out, nil
}
