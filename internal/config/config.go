// Package config loads and validates the site configuration (site.yaml)
// and the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the full site configuration.
type Config struct {
	Site   SiteConfig   `yaml:"site"`
	Dirs   DirsConfig   `yaml:"dirs"`
	Layout LayoutConfig `yaml:"layouts"`
	Images ImagesConfig `yaml:"images"`
	CSS    CSSConfig    `yaml:"css"`
	Theme  ThemeConfig  `yaml:"theme"`

	// Env is the resolved environment name ("production" or "development").
	// Populated from SITE_ENV, not from the YAML file.
	Env string `yaml:"-"`

	// BaseDir is the directory containing site.yaml. All relative paths in
	// the configuration resolve against it.
	BaseDir string `yaml:"-"`
}

// SiteConfig holds site identity used by templates, the feed, and the sitemap.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Author      string `yaml:"author,omitempty"`
	BaseURL     string `yaml:"base_url"`
	Language    string `yaml:"language,omitempty"`
}

// DirsConfig maps out the source and output tree.
type DirsConfig struct {
	Content string `yaml:"content"`
	Layouts string `yaml:"layouts"`
	Assets  string `yaml:"assets"`
	Static  string `yaml:"static"`
	Output  string `yaml:"output"`
	Cache   string `yaml:"cache"`
}

// LayoutConfig maps symbolic layout names to template files.
type LayoutConfig struct {
	Aliases map[string]string `yaml:"aliases"`
}

// ImagesConfig controls responsive image variant generation.
type ImagesConfig struct {
	Widths  []int  `yaml:"widths,omitempty"`
	Quality int    `yaml:"quality,omitempty"`
	Dir     string `yaml:"dir,omitempty"` // subdirectory of output for variants
}

// CSSConfig controls the stylesheet pipeline.
type CSSConfig struct {
	Entry string `yaml:"entry"`
	// ContentGlobs are the sources scanned for utility class usage.
	ContentGlobs []string `yaml:"content_globs,omitempty"`
	Output       string   `yaml:"output,omitempty"`
}

// ThemeConfig is the static token set the utility generator draws from.
type ThemeConfig struct {
	// Breakpoints maps responsive prefixes to min-width values ("md" -> "760px").
	Breakpoints map[string]string `yaml:"breakpoints,omitempty"`
	// Spacing maps scale steps to lengths ("4" -> "1rem").
	Spacing map[string]string `yaml:"spacing,omitempty"`
	// Colors maps color names to shade ramps ("gray" -> {"100": "#f7f7f7", ...}).
	Colors map[string]map[string]string `yaml:"colors,omitempty"`
	// FontSizes maps size names to CSS font-size values ("lg" -> "1.125rem").
	FontSizes map[string]string `yaml:"font_sizes,omitempty"`
}

// EnvProduction is the SITE_ENV value that enables production behavior
// (stylesheet minification).
const EnvProduction = "production"

// Load reads site.yaml from configPath, loads .env files, applies defaults,
// and validates the result.
func Load(configPath string) (*Config, error) {
	abs, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	loadEnvFiles(abs)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
	}

	cfg.BaseDir = abs
	cfg.Env = environment()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Production reports whether the build runs with SITE_ENV=production.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// ContentDir returns the absolute content directory.
func (c *Config) ContentDir() string { return c.abs(c.Dirs.Content) }

// LayoutsDir returns the absolute layouts directory.
func (c *Config) LayoutsDir() string { return c.abs(c.Dirs.Layouts) }

// AssetsDir returns the absolute assets directory.
func (c *Config) AssetsDir() string { return c.abs(c.Dirs.Assets) }

// StaticDir returns the absolute static-files directory.
func (c *Config) StaticDir() string { return c.abs(c.Dirs.Static) }

// OutputDir returns the absolute output directory.
func (c *Config) OutputDir() string { return c.abs(c.Dirs.Output) }

// CacheDir returns the absolute cache directory.
func (c *Config) CacheDir() string { return c.abs(c.Dirs.Cache) }

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Untitled Site"
	}
	if c.Site.Language == "" {
		c.Site.Language = "en"
	}
	if c.Dirs.Content == "" {
		c.Dirs.Content = "content"
	}
	if c.Dirs.Layouts == "" {
		c.Dirs.Layouts = "layouts"
	}
	if c.Dirs.Assets == "" {
		c.Dirs.Assets = "assets"
	}
	if c.Dirs.Static == "" {
		c.Dirs.Static = "static"
	}
	if c.Dirs.Output == "" {
		c.Dirs.Output = "_site"
	}
	if c.Dirs.Cache == "" {
		c.Dirs.Cache = ".cache"
	}
	if c.Layout.Aliases == nil {
		c.Layout.Aliases = map[string]string{
			"default": "default.html",
			"post":    "post.html",
		}
	}
	if len(c.Images.Widths) == 0 {
		c.Images.Widths = []int{400, 800, 1000, 1200, 1450}
	}
	if c.Images.Quality == 0 {
		c.Images.Quality = 80
	}
	if c.Images.Dir == "" {
		c.Images.Dir = "img"
	}
	if c.CSS.Entry == "" {
		c.CSS.Entry = filepath.Join(c.Dirs.Assets, "css", "site.css")
	}
	if c.CSS.Output == "" {
		c.CSS.Output = "css/site.css"
	}
	if len(c.CSS.ContentGlobs) == 0 {
		c.CSS.ContentGlobs = []string{
			filepath.Join(c.Dirs.Content, "**", "*.md"),
			filepath.Join(c.Dirs.Layouts, "**", "*.html"),
		}
	}
}

func (c *Config) validate() error {
	if c.Site.BaseURL == "" {
		return fmt.Errorf("config: site.base_url is required")
	}
	for name, file := range c.Layout.Aliases {
		if file == "" {
			return fmt.Errorf("config: layout alias %q maps to an empty file name", name)
		}
	}
	for _, w := range c.Images.Widths {
		if w <= 0 {
			return fmt.Errorf("config: image width %d is not positive", w)
		}
	}
	return nil
}

func environment() string {
	if env := os.Getenv("SITE_ENV"); env != "" {
		return env
	}
	return "development"
}
