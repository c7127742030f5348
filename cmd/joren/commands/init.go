package commands

import (
	"fmt"
	"os"
)

// InitCmd writes a starter configuration file.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

const starterConfig = `site:
  title: My Site
  description: A personal site.
  author: Your Name
  base_url: https://example.com
  language: en

dirs:
  content: content
  layouts: layouts
  assets: assets
  static: static
  output: _site
  cache: .cache

layouts:
  aliases:
    default: default.html
    post: post.html

images:
  widths: [400, 800, 1000, 1200, 1450]
  quality: 80
  dir: img

css:
  entry: assets/css/site.css
  output: css/site.css

theme:
  breakpoints:
    md: 760px
    lg: 1024px
  spacing:
    "0": "0"
    "1": 0.25rem
    "2": 0.5rem
    "4": 1rem
    "8": 2rem
  colors:
    gray:
      "100": "#f7f7f7"
      "700": "#4a4a4a"
  font_sizes:
    sm: 0.875rem
    base: 1rem
    lg: 1.125rem
`

func (i *InitCmd) Run(root *CLI) error {
	if _, err := os.Stat(root.Config); err == nil && !i.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", root.Config)
	}
	if err := os.WriteFile(root.Config, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", root.Config, err)
	}
	fmt.Printf("Wrote %s\n", root.Config)
	return nil
}
