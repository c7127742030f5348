package css

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// expandGlob resolves a file pattern. Patterns without "**" go straight to
// filepath.Glob; a single "**" matches any number of directories.
func expandGlob(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	if !strings.Contains(pattern, "**") {
		return filepath.Glob(filepath.FromSlash(pattern))
	}

	root, rest, _ := strings.Cut(pattern, "**")
	root = strings.TrimSuffix(root, "/")
	if root == "" {
		root = "."
	}
	rest = strings.TrimPrefix(rest, "/")

	var files []string
	err := filepath.WalkDir(filepath.FromSlash(root), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// A missing source root means no matches, not a failure.
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filepath.FromSlash(root), p)
		if err != nil {
			return err
		}
		if matchSuffix(rest, filepath.ToSlash(rel)) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// matchSuffix matches the post-** part of a pattern against the trailing
// segments of rel ("*.md" matches "a/b/c.md").
func matchSuffix(pattern, rel string) bool {
	if pattern == "" {
		return true
	}
	patSegs := strings.Split(pattern, "/")
	relSegs := strings.Split(rel, "/")
	if len(relSegs) < len(patSegs) {
		return false
	}
	tail := relSegs[len(relSegs)-len(patSegs):]
	for i, ps := range patSegs {
		ok, err := path.Match(ps, tail[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// scanFileClasses adds every class attribute token in the file to classes.
func scanFileClasses(file string, classes map[string]bool) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	for _, m := range classAttrPattern.FindAllSubmatch(data, -1) {
		for _, token := range strings.Fields(string(m[1])) {
			classes[token] = true
		}
	}
	return nil
}
