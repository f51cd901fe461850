package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/matzehuels/textart/pkg/imageio"
	"github.com/matzehuels/textart/pkg/observability"
)

// Decode decodes image bytes within the pixel budget of opts.
// The returned string is the registered format name ("png", "jpeg", ...).
func Decode(ctx context.Context, data []byte, opts Options) (image.Image, string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", err
	}
	hooks := observability.Pipeline()
	hooks.OnDecodeStart(ctx, len(data))
	start := time.Now()

	img, format, err := imageio.DecodeLimited(data, opts.MaxPixels)

	var w, h int
	if img != nil {
		w, h = img.Bounds().Dx(), img.Bounds().Dy()
	}
	hooks.OnDecodeComplete(ctx, format, w, h, time.Since(start), err)
	if err != nil {
		return nil, "", err
	}
	opts.Logger.Debug("decoded image", "format", format, "width", w, "height", h)
	return img, format, nil
}

// CheckBudget reads the image header and applies the pixel budget of opts.
// Cached art skips [Decode], but a request must still be refused when its
// input is over budget.
func CheckBudget(data []byte, opts Options) (image.Config, string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return image.Config{}, "", err
	}
	return imageio.DecodeHeader(data, opts.MaxPixels)
}
