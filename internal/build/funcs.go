package build

import (
	"html/template"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorenvanhee/joren.co/internal/config"
)

// templateFuncs is the FuncMap every layout renders with.
func templateFuncs(cfg *config.Config) template.FuncMap {
	return template.FuncMap{
		// cssHref is the site-absolute URL of the compiled stylesheet.
		"cssHref": func() string {
			return "/" + path.Clean(filepath.ToSlash(cfg.CSS.Output))
		},
		// absURL joins a site-absolute path onto the configured base URL.
		"absURL": func(p string) string {
			base := strings.TrimSuffix(cfg.Site.BaseURL, "/")
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
			return base + p
		},
		// dateDisplay formats a time for human-readable bylines.
		"dateDisplay": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		// dateMachine formats a time for <time datetime> attributes.
		"dateMachine": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
	}
}
