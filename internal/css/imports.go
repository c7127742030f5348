package css

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var importPattern = regexp.MustCompile(`(?m)^\s*@import\s+"([^"]+)"\s*;\s*$`)

// inlineImports recursively replaces @import "path"; statements with the
// referenced file's content, resolved relative to the importing file.
// Import cycles are fatal.
func inlineImports(input []byte, dir string) ([]byte, error) {
	return resolveImports(input, dir, map[string]bool{})
}

func resolveImports(input []byte, dir string, visiting map[string]bool) ([]byte, error) {
	var firstErr error
	out := importPattern.ReplaceAllFunc(input, func(match []byte) []byte {
		if firstErr != nil {
			return match
		}
		rel := string(importPattern.FindSubmatch(match)[1])

		target := filepath.Join(dir, filepath.FromSlash(rel))
		abs, err := filepath.Abs(target)
		if err != nil {
			firstErr = err
			return match
		}
		if visiting[abs] {
			firstErr = fmt.Errorf("import cycle through %s", rel)
			return match
		}

		data, err := os.ReadFile(target)
		if err != nil {
			firstErr = fmt.Errorf("resolve @import %q: %w", rel, err)
			return match
		}

		visiting[abs] = true
		inlined, err := resolveImports(data, filepath.Dir(target), visiting)
		delete(visiting, abs)
		if err != nil {
			firstErr = err
			return match
		}
		return inlined
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
