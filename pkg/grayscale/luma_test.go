package grayscale

import (
	"image/color"
	"testing"
)

func TestLuminance(t *testing.T) {
	tests := []struct {
		name  string
		c     color.NRGBA
		luma  Luma
		alpha AlphaPolicy
		want  uint8
	}{
		{"black", color.NRGBA{0, 0, 0, 255}, LumaRec709, AlphaWhite, 0},
		{"white", color.NRGBA{255, 255, 255, 255}, LumaRec709, AlphaWhite, 255},
		{"red 709", color.NRGBA{255, 0, 0, 255}, LumaRec709, AlphaWhite, 54},
		{"green 709", color.NRGBA{0, 255, 0, 255}, LumaRec709, AlphaWhite, 182},
		{"blue 709", color.NRGBA{0, 0, 255, 255}, LumaRec709, AlphaWhite, 18},
		{"red 601", color.NRGBA{255, 0, 0, 255}, LumaRec601, AlphaWhite, 76},
		{"white lightness", color.NRGBA{255, 255, 255, 255}, LumaLightness, AlphaWhite, 255},
		{"black lightness", color.NRGBA{0, 0, 0, 255}, LumaLightness, AlphaWhite, 0},

		{"transparent over white", color.NRGBA{0, 0, 0, 0}, LumaRec709, AlphaWhite, 255},
		{"transparent over black", color.NRGBA{255, 255, 255, 0}, LumaRec709, AlphaBlack, 0},
		{"transparent ignored", color.NRGBA{0, 0, 0, 0}, LumaRec709, AlphaIgnore, 0},
		{"half black over white", color.NRGBA{0, 0, 0, 128}, LumaRec709, AlphaWhite, 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Luminance(tt.c, tt.luma, tt.alpha)
			if got != tt.want {
				t.Errorf("Luminance(%v, %v, %v) = %d, want %d", tt.c, tt.luma, tt.alpha, got, tt.want)
			}
		})
	}
}

func TestLuminance_GrayIsIdentity(t *testing.T) {
	for _, luma := range []Luma{LumaRec709, LumaRec601} {
		for v := 0; v < 256; v++ {
			c := color.NRGBA{uint8(v), uint8(v), uint8(v), 255}
			if got := Luminance(c, luma, AlphaWhite); got != uint8(v) {
				t.Fatalf("%v: gray %d mapped to %d", luma, v, got)
			}
		}
	}
}

func TestParse(t *testing.T) {
	if l, err := ParseLuma("BT601"); err != nil || l != LumaRec601 {
		t.Errorf("ParseLuma(BT601) = %v, %v", l, err)
	}
	if l, err := ParseLuma(""); err != nil || l != LumaRec709 {
		t.Errorf("ParseLuma(\"\") = %v, %v", l, err)
	}
	if _, err := ParseLuma("hsv"); err == nil {
		t.Error("ParseLuma(hsv) should fail")
	}

	if f, err := ParseFilter("lanczos"); err != nil || f != FilterLanczos {
		t.Errorf("ParseFilter(lanczos) = %v, %v", f, err)
	}
	if _, err := ParseFilter("sinc"); err == nil {
		t.Error("ParseFilter(sinc) should fail")
	}

	if a, err := ParseAlphaPolicy("black"); err != nil || a != AlphaBlack {
		t.Errorf("ParseAlphaPolicy(black) = %v, %v", a, err)
	}
	if _, err := ParseAlphaPolicy("grey"); err == nil {
		t.Error("ParseAlphaPolicy(grey) should fail")
	}

	for _, f := range []Filter{FilterBox, FilterLinear, FilterCatmullRom, FilterLanczos, FilterNearest} {
		got, err := ParseFilter(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFilter(%q) = %v, %v", f.String(), got, err)
		}
	}
}
