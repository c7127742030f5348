package css

import (
	"github.com/tdewolff/minify/v2"
	mcss "github.com/tdewolff/minify/v2/css"
)

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", mcss.Minify)
	return m
}()

// minifyCSS is the production-only final stage.
func minifyCSS(input []byte) ([]byte, error) {
	return minifier.Bytes("text/css", input)
}
