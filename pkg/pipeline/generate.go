package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/matzehuels/textart/pkg/observability"
	"github.com/matzehuels/textart/pkg/textart"
)

// Generate converts a decoded image with gen. A nil gen selects a default
// [textart.Engine] logging to opts.Logger.
func Generate(ctx context.Context, gen textart.Generator, img image.Image, opts Options) (*textart.TextArt, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if gen == nil {
		gen = textart.NewEngine(nil, opts.Logger)
	}
	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, opts.Width, opts.PaletteLabel())
	start := time.Now()

	art, err := gen.Generate(ctx, img, opts.ResolvedPalette(), opts.ProcessingOptions())

	var cols, rows int
	if art != nil {
		cols, rows = art.Width(), art.Height()
	}
	hooks.OnGenerateComplete(ctx, cols, rows, time.Since(start), err)
	return art, err
}
