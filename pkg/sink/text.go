package sink

import (
	"bytes"

	"github.com/matzehuels/textart/pkg/textart"
)

// TextOption configures [RenderText].
type TextOption func(*textRenderer)

type textRenderer struct {
	trailingNewline bool
}

// WithTrailingNewline terminates the last row with a newline.
func WithTrailingNewline() TextOption { return func(r *textRenderer) { r.trailingNewline = true } }

// RenderText joins the rows with newlines.
func RenderText(art *textart.TextArt, opts ...TextOption) []byte {
	r := &textRenderer{}
	for _, opt := range opts {
		opt(r)
	}

	var buf bytes.Buffer
	buf.Grow((len(art.Row(0)) + 1) * art.Height())
	for y := 0; y < art.Height(); y++ {
		if y > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(art.Row(y))
	}
	if r.trailingNewline {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
