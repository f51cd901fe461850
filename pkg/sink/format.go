package sink

import (
	"fmt"
	"strings"

	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/textart"
)

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatPNG  Format = "png"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatPNG}

// ParseFormat resolves a format name. "txt" is accepted for text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (must be one of: text, json, png)", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatPNG:
		return "image/png"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Meta describes how the art was produced; the JSON sink embeds it.
type Meta struct {
	Palette string
	Invert  bool
}

// Render encodes art in the given format with default styling.
func Render(art *textart.TextArt, f Format, meta Meta) ([]byte, error) {
	switch f {
	case FormatText:
		return RenderText(art, WithTrailingNewline()), nil
	case FormatJSON:
		return RenderJSON(art, WithMeta(meta))
	case FormatPNG:
		return RenderPNG(art)
	default:
		return nil, fmt.Errorf("render: %w", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f))
	}
}
