package sink

import (
	"encoding/json"

	"github.com/matzehuels/textart/pkg/textart"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	meta    Meta
	compact bool
}

// WithMeta records the palette and invert setting in the output.
func WithMeta(m Meta) JSONOption { return func(r *jsonRenderer) { r.meta = m } }

// WithCompact disables indentation.
func WithCompact() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

type jsonDoc struct {
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Palette string   `json:"palette,omitempty"`
	Invert  bool     `json:"invert"`
	Rows    []string `json:"rows"`
}

// RenderJSON encodes the art with its dimensions and settings.
func RenderJSON(art *textart.TextArt, opts ...JSONOption) ([]byte, error) {
	r := &jsonRenderer{}
	for _, opt := range opts {
		opt(r)
	}

	doc := jsonDoc{
		Width:   art.Width(),
		Height:  art.Height(),
		Palette: r.meta.Palette,
		Invert:  r.meta.Invert,
		Rows:    art.Rows(),
	}
	if r.compact {
		return json.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}
