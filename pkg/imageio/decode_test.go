package imageio

import (
	"bytes"
	stderrors "errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/matzehuels/textart/pkg/errors"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	return img
}

func encode(t *testing.T, format string, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestDecode_Formats(t *testing.T) {
	for _, format := range []string{"png", "jpeg", "bmp", "tiff"} {
		t.Run(format, func(t *testing.T) {
			img, got, err := Decode(encode(t, format, testImage(12, 8)))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != format {
				t.Errorf("format = %q, want %q", got, format)
			}
			if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
				t.Errorf("bounds = %v, want 12x8", b)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		maxPixels int
		sentinel  error
		code      errors.Code
	}{
		{"empty", nil, 0, ErrEmptyImage, errors.ErrCodeInvalidImage},
		{"garbage", []byte("not an image at all"), 0, ErrInvalidImage, errors.ErrCodeInvalidImage},
		{"truncated png", encode(t, "png", testImage(20, 20))[:40], 0, ErrInvalidImage, errors.ErrCodeInvalidImage},
		{"over budget", encode(t, "png", testImage(20, 20)), 399, ErrImageTooLarge, errors.ErrCodeImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, _, err := DecodeLimited(tt.data, tt.maxPixels)
			if img != nil {
				t.Error("expected no image")
			}
			if !stderrors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}
			if errors.GetCode(err) != tt.code {
				t.Errorf("code = %v, want %v", errors.GetCode(err), tt.code)
			}
		})
	}
}

func TestDecodeLimited_AtBudget(t *testing.T) {
	if _, _, err := DecodeLimited(encode(t, "png", testImage(20, 20)), 400); err != nil {
		t.Errorf("image at budget rejected: %v", err)
	}
}

func TestDecodeHeader(t *testing.T) {
	data := encode(t, "png", testImage(20, 10))

	cfg, format, err := DecodeHeader(data, 200)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if format != "png" || cfg.Width != 20 || cfg.Height != 10 {
		t.Errorf("got %s %dx%d, want png 20x10", format, cfg.Width, cfg.Height)
	}

	if _, _, err := DecodeHeader(data, 199); errors.GetCode(err) != errors.ErrCodeImageTooLarge {
		t.Errorf("over budget: code = %v", errors.GetCode(err))
	}
	// A bare GIF header is enough to read dimensions.
	gif := []byte("GIF89a\x10\x00\x10\x00\x00\x00\x00")
	if _, _, err := DecodeHeader(gif, 100); errors.GetCode(err) != errors.ErrCodeImageTooLarge {
		t.Errorf("gif header: code = %v (%v)", errors.GetCode(err), err)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	want := encode(t, "png", testImage(4, 4))
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := ReadFile(path)
	if err != nil || !bytes.Equal(data, want) {
		t.Errorf("ReadFile = %d bytes, %v", len(data), err)
	}

	_, err = ReadFile(filepath.Join(dir, "missing.png"))
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("missing file code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}
