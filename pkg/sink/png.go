package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/textart"
)

// Cell size of the bitmap font, in pixels.
const (
	CellWidth  = 7
	CellHeight = 13
)

// MaxScale bounds the integer upscale factor.
const MaxScale = 8

// DefaultMaxPNGPixels bounds the rasterized output to 64 megapixels
// (256 MiB of RGBA) unless [WithMaxPixels] says otherwise.
const DefaultMaxPNGPixels = 1 << 26

// PNGOption configures [RenderPNG].
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	fg, bg    color.Color
	scale     int
	maxPixels int64
}

// WithForeground sets the glyph colour (default black).
func WithForeground(c color.Color) PNGOption { return func(r *pngRenderer) { r.fg = c } }

// WithBackground sets the canvas colour (default white).
func WithBackground(c color.Color) PNGOption { return func(r *pngRenderer) { r.bg = c } }

// WithMaxPixels overrides [DefaultMaxPNGPixels]. Zero or less disables the limit.
func WithMaxPixels(n int64) PNGOption { return func(r *pngRenderer) { r.maxPixels = n } }

// WithScale enlarges every cell by an integer factor (1 to MaxScale).
func WithScale(n int) PNGOption { return func(r *pngRenderer) { r.scale = n } }

// shades maps block elements, which the bitmap font lacks, to fill coverage.
var shades = map[rune]float64{
	'█': 1,
	'▓': 0.75,
	'▒': 0.5,
	'░': 0.25,
}

// RenderPNG rasterizes the art, one CellWidth x CellHeight cell per glyph.
// Glyphs missing from the font are drawn as '?'. Output larger than the pixel
// budget is refused with IMAGE_TOO_LARGE before any canvas is allocated.
func RenderPNG(art *textart.TextArt, opts ...PNGOption) ([]byte, error) {
	r := &pngRenderer{fg: color.Black, bg: color.White, scale: 1, maxPixels: DefaultMaxPNGPixels}
	for _, opt := range opts {
		opt(r)
	}
	if r.scale < 1 || r.scale > MaxScale {
		return nil, fmt.Errorf("png: scale %d out of range [1, %d]", r.scale, MaxScale)
	}
	w := int64(art.Width()) * CellWidth * int64(r.scale)
	h := int64(art.Height()) * CellHeight * int64(r.scale)
	if r.maxPixels > 0 && w*h > r.maxPixels {
		return nil, errors.New(errors.ErrCodeImageTooLarge, "png output %dx%d exceeds %d pixels", w, h, r.maxPixels)
	}

	img := r.rasterize(art)
	if r.scale > 1 {
		b := img.Bounds()
		scaled := image.NewRGBA(image.Rect(0, 0, b.Dx()*r.scale, b.Dy()*r.scale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *pngRenderer) rasterize(art *textart.TextArt) *image.RGBA {
	face := basicfont.Face7x13
	img := image.NewRGBA(image.Rect(0, 0, art.Width()*CellWidth, art.Height()*CellHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.bg), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.NewUniform(r.fg), Face: face}
	for y := 0; y < art.Height(); y++ {
		x := 0
		for _, g := range art.Row(y) {
			cell := image.Rect(x*CellWidth, y*CellHeight, (x+1)*CellWidth, (y+1)*CellHeight)
			switch {
			case g == ' ':
			case shades[g] > 0:
				fill(img, cell, blend(r.bg, r.fg, shades[g]))
			default:
				if !covered(face, g) {
					g = '?'
				}
				d.Dot = fixed.P(cell.Min.X, cell.Min.Y+face.Ascent)
				d.DrawString(string(g))
			}
			x++
		}
	}
	return img
}

func covered(face *basicfont.Face, r rune) bool {
	for _, rng := range face.Ranges {
		if r >= rng.Low && r < rng.High {
			return true
		}
	}
	return false
}

func fill(img *image.RGBA, rect image.Rectangle, c color.Color) {
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// blend mixes from toward to by t in [0, 1].
func blend(from, to color.Color, t float64) color.Color {
	fr, fg, fb, _ := from.RGBA()
	tr, tg, tb, _ := to.RGBA()
	mix := func(a, b uint32) uint8 {
		return uint8((float64(a)*(1-t) + float64(b)*t) / 257)
	}
	return color.RGBA{R: mix(fr, tr), G: mix(fg, tg), B: mix(fb, tb), A: 255}
}
