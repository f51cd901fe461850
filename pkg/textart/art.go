package textart

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextArt is an immutable grid of glyphs. Every row has the same number of
// runes; Width and Height are derived from the rows.
type TextArt struct {
	rows  []string
	width int
}

// FromRows builds a TextArt from a copy of rows. It fails if rows is empty, if
// the first row is empty, or if row lengths (in runes) differ.
func FromRows(rows []string) (*TextArt, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("textart: no rows")
	}
	width := utf8.RuneCountInString(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("textart: empty row")
	}
	for i, r := range rows[1:] {
		if n := utf8.RuneCountInString(r); n != width {
			return nil, fmt.Errorf("textart: row %d has %d glyphs, want %d", i+1, n, width)
		}
	}
	owned := make([]string, len(rows))
	copy(owned, rows)
	return &TextArt{rows: owned, width: width}, nil
}

// newTextArt takes ownership of rows that are already known to be rectangular.
func newTextArt(rows []string, width int) *TextArt {
	return &TextArt{rows: rows, width: width}
}

// Width returns the number of glyphs per row.
func (a *TextArt) Width() int { return a.width }

// Height returns the number of rows.
func (a *TextArt) Height() int { return len(a.rows) }

// Rows returns a copy of the rows, top to bottom.
func (a *TextArt) Rows() []string {
	out := make([]string, len(a.rows))
	copy(out, a.rows)
	return out
}

// Row returns row y. It panics if y is out of range.
func (a *TextArt) Row(y int) string { return a.rows[y] }

// At returns the glyph at column x, row y. It panics if either is out of range.
func (a *TextArt) At(x, y int) rune {
	if x < 0 || x >= a.width {
		panic(fmt.Sprintf("textart: At(%d, %d) out of range %dx%d", x, y, a.width, len(a.rows)))
	}
	i := 0
	for _, r := range a.rows[y] {
		if i == x {
			return r
		}
		i++
	}
	panic("unreachable")
}

// String joins the rows with newlines, without a trailing newline.
func (a *TextArt) String() string {
	return strings.Join(a.rows, "\n")
}

// Equal reports whether both values hold the same rows.
func (a *TextArt) Equal(b *TextArt) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.width != b.width || len(a.rows) != len(b.rows) {
		return false
	}
	for i := range a.rows {
		if a.rows[i] != b.rows[i] {
			return false
		}
	}
	return true
}

type artJSON struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Rows   []string `json:"rows"`
}

// MarshalJSON encodes the art as {"width", "height", "rows"}.
func (a *TextArt) MarshalJSON() ([]byte, error) {
	return json.Marshal(artJSON{Width: a.width, Height: len(a.rows), Rows: a.rows})
}

// UnmarshalJSON decodes and validates the rows. Width and height, when
// present, must agree with the rows.
func (a *TextArt) UnmarshalJSON(data []byte) error {
	var raw artJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	art, err := FromRows(raw.Rows)
	if err != nil {
		return err
	}
	if raw.Width != 0 && raw.Width != art.width {
		return fmt.Errorf("textart: width %d does not match rows (%d)", raw.Width, art.width)
	}
	if raw.Height != 0 && raw.Height != len(art.rows) {
		return fmt.Errorf("textart: height %d does not match rows (%d)", raw.Height, len(art.rows))
	}
	*a = *art
	return nil
}
