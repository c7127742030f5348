package css

import (
	"fmt"
	"strings"
)

// flattenNesting desugars nested rules into flat ones. `&` references the
// parent selector; a nested selector without `&` becomes a descendant
// selector. At-rules with blocks (@media and friends) are preserved and
// their contents flattened in place.
func flattenNesting(input []byte) ([]byte, error) {
	nodes, rest, err := parseNodes(string(input), false)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("unbalanced braces near %q", snippet(rest))
	}

	var b strings.Builder
	emitNodes(&b, nodes, "", "")
	return []byte(b.String()), nil
}

// cssNode is either a declaration (isBlock=false, text holds the statement)
// or a braced block (selector or at-rule header in text, body in children).
type cssNode struct {
	text     string
	isBlock  bool
	decls    []string
	children []*cssNode
}

// parseNodes consumes statements until end of input or, when inBlock is set,
// the closing brace of the current block. It returns the unconsumed rest.
func parseNodes(s string, inBlock bool) ([]*cssNode, string, error) {
	var nodes []*cssNode

	for {
		start, token := nextToken(s)
		if token == 0 {
			if inBlock {
				return nil, "", fmt.Errorf("missing closing brace")
			}
			if strings.TrimSpace(s) != "" {
				nodes = append(nodes, &cssNode{text: strings.TrimSpace(s)})
			}
			return nodes, "", nil
		}

		text := strings.TrimSpace(s[:start])
		switch token {
		case ';':
			if text != "" {
				nodes = append(nodes, &cssNode{text: text})
			}
			s = s[start+1:]
		case '}':
			if !inBlock {
				return nil, "", fmt.Errorf("unexpected closing brace near %q", snippet(s))
			}
			if text != "" {
				nodes = append(nodes, &cssNode{text: text})
			}
			return nodes, s[start+1:], nil
		case '{':
			children, rest, err := parseNodes(s[start+1:], true)
			if err != nil {
				return nil, "", err
			}
			node := &cssNode{text: text, isBlock: true}
			for _, c := range children {
				if c.isBlock {
					node.children = append(node.children, c)
				} else {
					node.decls = append(node.decls, c.text)
				}
			}
			nodes = append(nodes, node)
			s = rest
		}
	}
}

// nextToken finds the next structural token (; { }) outside strings and
// comments. Returns its index and the token, or (len, 0) when none remains.
func nextToken(s string) (int, byte) {
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return len(s), 0
			}
			i += 2 + end + 2
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < len(s) && s[j] != quote {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			i = j + 1
		case c == ';' || c == '{' || c == '}':
			return i, c
		default:
			i++
		}
	}
	return len(s), 0
}

// emitNodes writes flattened rules. parent is the enclosing selector ("" at
// top level); indent is non-empty inside preserved at-rule wrappers.
func emitNodes(b *strings.Builder, nodes []*cssNode, parent, indent string) {
	for _, n := range nodes {
		if !n.isBlock {
			if strings.HasPrefix(n.text, "/*") {
				fmt.Fprintf(b, "%s%s\n", indent, n.text)
			} else {
				fmt.Fprintf(b, "%s%s;\n", indent, n.text)
			}
			continue
		}

		if strings.HasPrefix(n.text, "@") {
			fmt.Fprintf(b, "%s%s {\n", indent, n.text)
			if len(n.decls) > 0 && parent != "" {
				writeFlatRule(b, parent, n.decls, indent+"  ")
			} else {
				for _, d := range n.decls {
					fmt.Fprintf(b, "%s  %s;\n", indent, d)
				}
			}
			emitNodes(b, n.children, parent, indent+"  ")
			fmt.Fprintf(b, "%s}\n", indent)
			continue
		}

		combined := combineSelectors(parent, n.text)
		if len(n.decls) > 0 {
			writeFlatRule(b, combined, n.decls, indent)
		}
		emitNodes(b, n.children, combined, indent)
	}
}

func writeFlatRule(b *strings.Builder, selector string, decls []string, indent string) {
	fmt.Fprintf(b, "%s%s {\n", indent, selector)
	for _, d := range decls {
		fmt.Fprintf(b, "%s  %s;\n", indent, d)
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

// combineSelectors merges a nested selector with its parent, expanding each
// comma-separated combination.
func combineSelectors(parent, child string) string {
	if parent == "" {
		return child
	}

	var parts []string
	for _, c := range splitSelectorList(child) {
		for _, p := range splitSelectorList(parent) {
			if strings.Contains(c, "&") {
				parts = append(parts, strings.ReplaceAll(c, "&", p))
			} else {
				parts = append(parts, p+" "+c)
			}
		}
	}
	return strings.Join(parts, ", ")
}

func splitSelectorList(s string) []string {
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "…"
	}
	return s
}
