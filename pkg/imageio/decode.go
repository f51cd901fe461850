// Package imageio decodes image bytes for the CLI and the HTTP API.
//
// PNG, JPEG and GIF come from the standard library; BMP, TIFF and WebP are
// registered from golang.org/x/image. Header dimensions are checked against a
// pixel budget before the full decode so oversized uploads are rejected
// without allocating their pixel data.
package imageio

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/textart/pkg/errors"
)

// DefaultMaxPixels bounds decoded images to 64 megapixels.
const DefaultMaxPixels = 1 << 26

// Decoding errors. Returned errors wrap these and carry an error code.
var (
	ErrEmptyImage    = stderrors.New("imageio: empty image data")
	ErrInvalidImage  = stderrors.New("imageio: invalid image data")
	ErrImageTooLarge = stderrors.New("imageio: image too large")
)

// Formats lists the registered decoder names.
func Formats() []string {
	return []string{"bmp", "gif", "jpeg", "png", "tiff", "webp"}
}

// Decode decodes data with the [DefaultMaxPixels] budget.
// It returns the image and the format name reported by the decoder.
func Decode(data []byte) (image.Image, string, error) {
	return DecodeLimited(data, DefaultMaxPixels)
}

// DecodeLimited decodes data after checking the header against maxPixels.
// A maxPixels of zero or less disables the check.
func DecodeLimited(data []byte, maxPixels int) (image.Image, string, error) {
	if _, format, err := DecodeHeader(data, maxPixels); err != nil {
		return nil, format, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, errors.Wrap(errors.ErrCodeInvalidImage, invalid(err), "decode %s", format)
	}
	return img, format, nil
}

// DecodeHeader reads only the image header and checks it against maxPixels.
// It reports the same errors as [DecodeLimited] for empty, unrecognized and
// oversized inputs without allocating pixel data.
func DecodeHeader(data []byte, maxPixels int) (image.Config, string, error) {
	if len(data) == 0 {
		return image.Config{}, "", errors.Wrap(errors.ErrCodeInvalidImage, ErrEmptyImage, "decode image")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if stderrors.Is(err, image.ErrFormat) {
		return cfg, "", errors.Wrap(errors.ErrCodeInvalidImage, invalid(err), "unrecognized image format (supported: %s)", strings.Join(Formats(), ", "))
	}
	if err != nil {
		return cfg, "", errors.Wrap(errors.ErrCodeInvalidImage, invalid(err), "read image header")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, format, errors.Wrap(errors.ErrCodeInvalidImage, ErrInvalidImage, "%s image has no pixels (%dx%d)", format, cfg.Width, cfg.Height)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return cfg, format, errors.Wrap(errors.ErrCodeImageTooLarge, ErrImageTooLarge, "%dx%d %s exceeds %d pixels", cfg.Width, cfg.Height, format, maxPixels)
	}
	return cfg, format, nil
}

// ReadFile reads image bytes from path. A missing file is reported as
// FILE_NOT_FOUND.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return data, nil
}

func invalid(cause error) error {
	return fmt.Errorf("%w: %v", ErrInvalidImage, cause)
}
