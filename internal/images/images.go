// Package images produces responsive raster variants for the image
// shortcode and renders the markup that references them.
package images

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// encodeConcurrency bounds parallel variant encoding per shortcode call.
const encodeConcurrency = 4

// Options configures a Renderer.
type Options struct {
	// SourceDir holds the original images referenced by shortcodes.
	SourceDir string
	// OutputDir is the site output root; variants go to OutputDir/Subdir.
	OutputDir string
	// Subdir is the variant directory name under the output root ("img").
	Subdir string
	// StoreDir, when set, persists encoded variants across builds; the
	// output copy is installed from it. Without a store the output file
	// itself is the only copy, so wiping the output forces re-encoding.
	StoreDir string
	// Widths are the requested variant widths in pixels.
	Widths []int
	// Quality is the JPEG encode quality.
	Quality int
	// Cache indexes previously encoded variants. Optional.
	Cache *Cache
}

// Renderer implements the image shortcode: it writes resized JPEG variants
// of a source image and returns an <img> element with srcset/sizes.
type Renderer struct {
	opts Options

	// mu serializes whole-source renders so two references to the same
	// image do not race on the same output files.
	mu sync.Mutex

	encoded atomic.Int64
}

// Encoded returns the number of variants this renderer actually encoded
// (cache misses), for build reporting.
func (r *Renderer) Encoded() int {
	return int(r.encoded.Load())
}

// NewRenderer returns a Renderer for the given options.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

type variant struct {
	Width    int
	Height   int
	Filename string
}

// Render resolves src under the source directory, ensures all variants
// exist, and returns the responsive markup. It blocks until every variant
// is encoded. A missing or undecodable source is an error; the caller is
// expected to abort the build.
func (r *Renderer) Render(ctx context.Context, src, alt, sizes string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sourcePath := filepath.Join(r.opts.SourceDir, filepath.FromSlash(src))
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("image source %s: %w", src, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image %s: %w", src, err)
	}
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	widths := targetWidths(r.opts.Widths, origW)
	variants := make([]variant, len(widths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(encodeConcurrency)
	for i, w := range widths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			v, err := r.ensureVariant(src, hash, img, origW, origH, w)
			if err != nil {
				return err
			}
			variants[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return r.markup(variants, alt, sizes), nil
}

// ensureVariant returns the variant for width w, encoding it only when the
// cache has no record for this source content or the stored file went
// missing.
func (r *Renderer) ensureVariant(src, hash string, img image.Image, origW, origH, w int) (variant, error) {
	name := variantName(src, w)
	outPath := filepath.Join(r.opts.OutputDir, r.opts.Subdir, filepath.FromSlash(name))
	h := origH * w / origW

	storePath := outPath
	if r.opts.StoreDir != "" {
		storePath = filepath.Join(r.opts.StoreDir, filepath.FromSlash(name))
	}

	hit := false
	if r.opts.Cache != nil {
		cached, ok, err := r.opts.Cache.Lookup(src, hash, w)
		if err != nil {
			return variant{}, err
		}
		if ok && cached == name {
			if _, err := os.Stat(storePath); err == nil {
				hit = true
			}
		}
	}

	if !hit {
		if err := encodeVariant(img, origW, origH, w, r.opts.Quality, storePath); err != nil {
			return variant{}, fmt.Errorf("encode %s at %dw: %w", src, w, err)
		}
		r.encoded.Add(1)
		if r.opts.Cache != nil {
			if err := r.opts.Cache.Record(src, hash, w, name); err != nil {
				return variant{}, err
			}
		}
	}

	if storePath != outPath {
		if err := installVariant(storePath, outPath); err != nil {
			return variant{}, err
		}
	}
	return variant{Width: w, Height: h, Filename: name}, nil
}

// installVariant copies a stored variant into the output tree. An existing
// output file was installed earlier in the same build and is left alone.
func installVariant(storePath, outPath string) error {
	if _, err := os.Stat(outPath); err == nil {
		return nil
	}
	data, err := os.ReadFile(storePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}

func encodeVariant(img image.Image, origW, origH, w, quality int, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	out := img
	if w < origW {
		h := origH * w / origW
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
		out = dst
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, out, &jpeg.Options{Quality: quality}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// targetWidths filters configured widths that the source can supply without
// upscaling. The source's own width is appended as the largest variant when
// it falls below the configured maximum.
func targetWidths(widths []int, origW int) []int {
	var out []int
	maxConfigured := 0
	for _, w := range widths {
		if w > maxConfigured {
			maxConfigured = w
		}
		if w <= origW {
			out = append(out, w)
		}
	}
	if origW < maxConfigured && (len(out) == 0 || out[len(out)-1] != origW) {
		out = append(out, origW)
	}
	sort.Ints(out)
	return out
}

func (r *Renderer) markup(variants []variant, alt, sizes string) string {
	srcset := make([]string, len(variants))
	for i, v := range variants {
		srcset[i] = fmt.Sprintf("%s %dw", r.urlFor(v.Filename), v.Width)
	}
	largest := variants[len(variants)-1]

	return fmt.Sprintf(
		`<img src="%s" srcset="%s" sizes="%s" alt="%s" width="%d" height="%d" loading="lazy" decoding="async">`,
		r.urlFor(largest.Filename),
		strings.Join(srcset, ", "),
		htmlEscape(sizes),
		htmlEscape(alt),
		largest.Width,
		largest.Height,
	)
}

func (r *Renderer) urlFor(filename string) string {
	return "/" + r.opts.Subdir + "/" + filename
}

// variantName is deterministic for (source, width), which keeps shortcode
// output idempotent across builds. The name mirrors the source's directory
// so same-named files under different directories get distinct variants.
func variantName(src string, w int) string {
	s := path.Clean(filepath.ToSlash(src))
	base := strings.TrimSuffix(path.Base(s), path.Ext(s))
	name := fmt.Sprintf("%s-%dw.jpg", base, w)
	if dir := path.Dir(s); dir != "." {
		name = dir + "/" + name
	}
	return name
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
