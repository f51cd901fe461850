// Package palette defines character palettes and the luminance quantizer.
//
// A [Palette] is an ordered list of glyphs from densest (index 0, used for the
// darkest samples) to sparsest (last index, used for the lightest). Palettes
// are immutable values; the zero value is an empty palette, which the
// generator rejects as invalid input.
//
// [Quantize] is the free-standing mapping from an 8-bit sample to a palette
// index. It is monotone: for a <= b, Quantize(a, n, false) <= Quantize(b, n, false).
package palette

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/matzehuels/textart/pkg/errors"
)

// Palette is an immutable ordered sequence of single-cell glyphs.
type Palette struct {
	glyphs []rune
}

// New segments s into grapheme clusters and builds a palette from them.
//
// Every cluster must be a single rune that occupies exactly one terminal cell,
// otherwise rows would not line up. Duplicate glyphs are allowed.
func New(s string) (Palette, error) {
	if err := errors.ValidateChars(s); err != nil {
		return Palette{}, err
	}

	var glyphs []rune
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		if len(runes) != 1 {
			return Palette{}, errors.New(errors.ErrCodeInvalidPalette, "glyph %q is a combined sequence, want a single character", g.Str())
		}
		if w := uniseg.StringWidth(g.Str()); w != 1 {
			return Palette{}, errors.New(errors.ErrCodeInvalidPalette, "glyph %q has display width %d, want 1", g.Str(), w)
		}
		glyphs = append(glyphs, runes[0])
	}
	return Palette{glyphs: glyphs}, nil
}

// MustNew is like [New] but panics on error. Intended for package-level presets.
func MustNew(s string) Palette {
	p, err := New(s)
	if err != nil {
		panic(err)
	}
	return p
}

// FromRunes builds a palette from glyphs without width validation.
// An empty slice yields an empty palette.
func FromRunes(glyphs []rune) Palette {
	if len(glyphs) == 0 {
		return Palette{}
	}
	owned := make([]rune, len(glyphs))
	copy(owned, glyphs)
	return Palette{glyphs: owned}
}

// Len returns the number of glyphs.
func (p Palette) Len() int { return len(p.glyphs) }

// Empty reports whether the palette has no glyphs.
func (p Palette) Empty() bool { return len(p.glyphs) == 0 }

// Glyph returns the glyph at index i. It panics if i is out of range.
func (p Palette) Glyph(i int) rune { return p.glyphs[i] }

// Glyphs returns a copy of the glyph sequence.
func (p Palette) Glyphs() []rune {
	out := make([]rune, len(p.glyphs))
	copy(out, p.glyphs)
	return out
}

// Reverse returns a palette with the glyph order flipped.
func (p Palette) Reverse() Palette {
	out := make([]rune, len(p.glyphs))
	for i, r := range p.glyphs {
		out[len(out)-1-i] = r
	}
	return Palette{glyphs: out}
}

// String returns the glyphs concatenated in order.
func (p Palette) String() string {
	var b strings.Builder
	for _, r := range p.glyphs {
		b.WriteRune(r)
	}
	return b.String()
}

// Table returns a 256-entry lookup from sample value to glyph.
// It panics on an empty palette.
func (p Palette) Table(invert bool) [256]rune {
	var t [256]rune
	n := len(p.glyphs)
	for s := 0; s < 256; s++ {
		t[s] = p.glyphs[Quantize(uint8(s), n, invert)]
	}
	return t
}
