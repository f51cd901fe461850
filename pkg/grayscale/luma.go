package grayscale

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Luma selects how RGB channels are reduced to a single luminance value.
type Luma int

const (
	// LumaRec709 weights channels 0.2126 R + 0.7152 G + 0.0722 B (ITU-R BT.709).
	LumaRec709 Luma = iota
	// LumaRec601 weights channels 0.299 R + 0.587 G + 0.114 B (ITU-R BT.601).
	LumaRec601
	// LumaLightness uses CIE L* from the sRGB colour, which tracks perceived
	// brightness more closely in the midtones.
	LumaLightness
)

var lumaNames = map[string]Luma{
	"rec709":    LumaRec709,
	"bt709":     LumaRec709,
	"rec601":    LumaRec601,
	"bt601":     LumaRec601,
	"lightness": LumaLightness,
	"lab":       LumaLightness,
}

// ParseLuma resolves a luma name ("rec709", "rec601", "lightness").
func ParseLuma(s string) (Luma, error) {
	if s == "" {
		return LumaRec709, nil
	}
	if l, ok := lumaNames[strings.ToLower(s)]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("unknown luma %q (must be one of: rec709, rec601, lightness)", s)
}

func (l Luma) String() string {
	switch l {
	case LumaRec709:
		return "rec709"
	case LumaRec601:
		return "rec601"
	case LumaLightness:
		return "lightness"
	default:
		return fmt.Sprintf("Luma(%d)", int(l))
	}
}

// AlphaPolicy fixes how translucent pixels contribute to luminance.
type AlphaPolicy int

const (
	// AlphaWhite composites over white: fully transparent pixels become 255.
	AlphaWhite AlphaPolicy = iota
	// AlphaBlack composites over black: fully transparent pixels become 0.
	AlphaBlack
	// AlphaIgnore treats every pixel as opaque and uses its straight colour.
	AlphaIgnore
)

// ParseAlphaPolicy resolves an alpha policy name ("white", "black", "ignore").
func ParseAlphaPolicy(s string) (AlphaPolicy, error) {
	switch strings.ToLower(s) {
	case "", "white":
		return AlphaWhite, nil
	case "black":
		return AlphaBlack, nil
	case "ignore", "none":
		return AlphaIgnore, nil
	default:
		return 0, fmt.Errorf("unknown alpha policy %q (must be one of: white, black, ignore)", s)
	}
}

func (a AlphaPolicy) String() string {
	switch a {
	case AlphaWhite:
		return "white"
	case AlphaBlack:
		return "black"
	case AlphaIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("AlphaPolicy(%d)", int(a))
	}
}

// Filter selects the resampling kernel used to reach the target size.
type Filter int

const (
	// FilterBox averages every source pixel under the destination cell.
	FilterBox Filter = iota
	FilterLinear
	FilterCatmullRom
	FilterLanczos
	FilterNearest
)

// ParseFilter resolves a filter name ("box", "linear", "catmullrom", "lanczos", "nearest").
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "", "box", "area":
		return FilterBox, nil
	case "linear", "bilinear":
		return FilterLinear, nil
	case "catmullrom", "catmull-rom", "bicubic":
		return FilterCatmullRom, nil
	case "lanczos":
		return FilterLanczos, nil
	case "nearest", "nearestneighbor":
		return FilterNearest, nil
	default:
		return 0, fmt.Errorf("unknown filter %q (must be one of: box, linear, catmullrom, lanczos, nearest)", s)
	}
}

func (f Filter) String() string {
	switch f {
	case FilterBox:
		return "box"
	case FilterLinear:
		return "linear"
	case FilterCatmullRom:
		return "catmullrom"
	case FilterLanczos:
		return "lanczos"
	case FilterNearest:
		return "nearest"
	default:
		return fmt.Sprintf("Filter(%d)", int(f))
	}
}

func (f Filter) resampleFilter() imaging.ResampleFilter {
	switch f {
	case FilterLinear:
		return imaging.Linear
	case FilterCatmullRom:
		return imaging.CatmullRom
	case FilterLanczos:
		return imaging.Lanczos
	case FilterNearest:
		return imaging.NearestNeighbor
	default:
		return imaging.Box
	}
}

// Luminance reduces a non-premultiplied colour to an 8-bit luminance sample.
//
// The weighted sum is computed in float64 on 8-bit channel values, alpha is
// applied according to policy, and the result is rounded half away from zero
// and clamped to [0, 255].
func Luminance(c color.NRGBA, luma Luma, policy AlphaPolicy) uint8 {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)

	var y float64
	switch luma {
	case LumaRec601:
		y = 0.299*r + 0.587*g + 0.114*b
	case LumaLightness:
		l, _, _ := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Lab()
		y = l * 255
	default:
		y = 0.2126*r + 0.7152*g + 0.0722*b
	}

	a := float64(c.A) / 255
	switch policy {
	case AlphaWhite:
		y = y*a + 255*(1-a)
	case AlphaBlack:
		y *= a
	}

	return clamp8(math.Round(y))
}

func clamp8(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
