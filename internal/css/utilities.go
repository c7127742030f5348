package css

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jorenvanhee/joren.co/internal/config"
)

// utilitiesMarker is the placeholder in the entry stylesheet that the
// generated utility block replaces.
const utilitiesMarker = "@utilities;"

var classAttrPattern = regexp.MustCompile(`class\s*=\s*["']([^"']*)["']`)

// spacingProps maps utility prefixes to the CSS properties they set.
var spacingProps = map[string][]string{
	"m":  {"margin"},
	"mt": {"margin-top"},
	"mr": {"margin-right"},
	"mb": {"margin-bottom"},
	"ml": {"margin-left"},
	"mx": {"margin-left", "margin-right"},
	"my": {"margin-top", "margin-bottom"},
	"p":  {"padding"},
	"pt": {"padding-top"},
	"pr": {"padding-right"},
	"pb": {"padding-bottom"},
	"pl": {"padding-left"},
	"px": {"padding-left", "padding-right"},
	"py": {"padding-top", "padding-bottom"},
}

// generateUtilities scans the content sources for class usage and replaces
// the @utilities; marker with rules for every used class the theme tokens
// can express. Unused utilities are never emitted.
func generateUtilities(input []byte, theme config.ThemeConfig, globs []string) ([]byte, error) {
	if !strings.Contains(string(input), utilitiesMarker) {
		return input, nil
	}

	used, err := usedClasses(globs)
	if err != nil {
		return nil, err
	}

	block := buildUtilityBlock(used, theme)
	out := strings.Replace(string(input), utilitiesMarker, block, 1)
	return []byte(out), nil
}

// usedClasses collects every class token that appears in a class attribute
// under the configured source globs.
func usedClasses(globs []string) (map[string]bool, error) {
	classes := map[string]bool{}
	for _, pattern := range globs {
		files, err := expandGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}
		for _, file := range files {
			if err := scanFileClasses(file, classes); err != nil {
				return nil, err
			}
		}
	}
	return classes, nil
}

func buildUtilityBlock(used map[string]bool, theme config.ThemeConfig) string {
	type rule struct {
		class string
		decls []string
	}
	base := []rule{}
	responsive := map[string][]rule{}

	names := make([]string, 0, len(used))
	for class := range used {
		names = append(names, class)
	}
	sort.Strings(names)

	for _, class := range names {
		bp, bare := splitBreakpoint(class, theme.Breakpoints)
		decls, ok := utilityDecls(bare, theme)
		if !ok {
			continue
		}
		r := rule{class: class, decls: decls}
		if bp == "" {
			base = append(base, r)
		} else {
			responsive[bp] = append(responsive[bp], r)
		}
	}

	var b strings.Builder
	for _, r := range base {
		writeRule(&b, r.class, r.decls, "")
	}
	for _, bp := range breakpointsBySize(theme.Breakpoints) {
		rules := responsive[bp]
		if len(rules) == 0 {
			continue
		}
		fmt.Fprintf(&b, "@media (min-width: %s) {\n", theme.Breakpoints[bp])
		for _, r := range rules {
			writeRule(&b, r.class, r.decls, "  ")
		}
		b.WriteString("}\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writeRule(b *strings.Builder, class string, decls []string, indent string) {
	fmt.Fprintf(b, "%s.%s {\n", indent, escapeClass(class))
	for _, d := range decls {
		fmt.Fprintf(b, "%s  %s;\n", indent, d)
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

// utilityDecls maps a bare utility class to its declarations using the theme
// token set. Classes outside the utility grammar return ok=false and are
// simply not generated.
func utilityDecls(class string, theme config.ThemeConfig) ([]string, bool) {
	if prefix, key, ok := strings.Cut(class, "-"); ok {
		if props, isSpacing := spacingProps[prefix]; isSpacing {
			value, known := theme.Spacing[key]
			if !known {
				return nil, false
			}
			decls := make([]string, len(props))
			for i, p := range props {
				decls[i] = p + ": " + value
			}
			return decls, true
		}
	}

	if rest, ok := strings.CutPrefix(class, "text-"); ok {
		if size, known := theme.FontSizes[rest]; known {
			return []string{"font-size: " + size}, true
		}
		if value, known := colorValue(rest, theme.Colors); known {
			return []string{"color: " + value}, true
		}
		return nil, false
	}

	if rest, ok := strings.CutPrefix(class, "bg-"); ok {
		if value, known := colorValue(rest, theme.Colors); known {
			return []string{"background-color: " + value}, true
		}
		return nil, false
	}

	return nil, false
}

// colorValue resolves "gray-700" against the theme color ramps.
func colorValue(name string, colors map[string]map[string]string) (string, bool) {
	color, shade, ok := strings.Cut(name, "-")
	if !ok {
		return "", false
	}
	ramp, known := colors[color]
	if !known {
		return "", false
	}
	value, known := ramp[shade]
	return value, known
}

func splitBreakpoint(class string, breakpoints map[string]string) (bp, bare string) {
	prefix, rest, ok := strings.Cut(class, ":")
	if !ok {
		return "", class
	}
	if _, known := breakpoints[prefix]; !known {
		return "", class
	}
	return prefix, rest
}

// breakpointsBySize orders breakpoint names by their min-width so generated
// media queries cascade smallest to largest.
func breakpointsBySize(breakpoints map[string]string) []string {
	names := make([]string, 0, len(breakpoints))
	for name := range breakpoints {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		wi, wj := cssLength(breakpoints[names[i]]), cssLength(breakpoints[names[j]])
		if wi != wj {
			return wi < wj
		}
		return names[i] < names[j]
	})
	return names
}

func cssLength(v string) float64 {
	trimmed := strings.TrimRightFunc(v, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return f
}

func escapeClass(class string) string {
	return strings.ReplaceAll(class, ":", `\:`)
}
