package textart

import (
	"context"
	"errors"
	"image"
	"io"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/textart/pkg/grayscale"
	"github.com/matzehuels/textart/pkg/observability"
	"github.com/matzehuels/textart/pkg/palette"
)

// Generator turns an image into text art.
//
// Implementations return either a complete *TextArt or a *GenerationError,
// never both and never a partial result.
type Generator interface {
	Generate(ctx context.Context, img image.Image, pal palette.Palette, opts ProcessingOptions) (*TextArt, error)
}

// Engine is the default [Generator].
//
// Sampler is optional; when nil each call builds a [grayscale.DefaultSampler]
// from the call's options. Logger defaults to a discard logger and Workers to
// GOMAXPROCS.
type Engine struct {
	Sampler grayscale.Sampler
	Logger  *log.Logger
	Workers int
}

// NewEngine creates an engine around sampler (nil for the built-in sampler).
func NewEngine(sampler grayscale.Sampler, logger *log.Logger) *Engine {
	return &Engine{Sampler: sampler, Logger: logger}
}

var discardLogger = log.New(io.Discard)

// Generate implements [Generator].
func (e *Engine) Generate(ctx context.Context, img image.Image, pal palette.Palette, opts ProcessingOptions) (*TextArt, error) {
	if pal.Empty() {
		return nil, invalidPalette("palette has no glyphs")
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	if err := opts.Validate(); err != nil {
		return nil, generationFailed(err, "invalid options: %v", err)
	}

	logger := e.logger()
	hooks := observability.Generator()

	sampleStart := time.Now()
	hooks.OnSampleStart(ctx, opts.TargetWidth, opts.AspectCorrection)
	buf, err := e.sampler(opts, logger).GrayscalePixels(ctx, img, opts.TargetWidth, opts.AspectCorrection)
	w, h := dims(buf)
	hooks.OnSampleComplete(ctx, w, h, time.Since(sampleStart), err)
	if err != nil {
		return nil, classifySamplerError(ctx, err)
	}
	if buf == nil {
		return nil, generationFailed(nil, "sampler returned no buffer")
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	logger.Debug("sampled image",
		"width", buf.Width(),
		"height", buf.Height(),
		"duration", time.Since(sampleStart))

	assembleStart := time.Now()
	art, err := e.assemble(ctx, buf, pal, opts.Invert)
	hooks.OnAssembleComplete(ctx, buf.Height(), time.Since(assembleStart), err)
	if err != nil {
		return nil, err
	}
	logger.Debug("assembled text art",
		"rows", art.Height(),
		"glyphs", pal.Len(),
		"invert", opts.Invert,
		"duration", time.Since(assembleStart))

	return art, nil
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		return discardLogger
	}
	return e.Logger
}

func (e *Engine) sampler(opts ProcessingOptions, logger *log.Logger) grayscale.Sampler {
	if e.Sampler != nil {
		if opts.setsSampler() {
			logger.Debug("injected sampler ignores sampling options",
				"max_dimension", opts.MaxDimension,
				"filter", opts.Filter,
				"luma", opts.Luma,
				"alpha", opts.Alpha)
		}
		return e.Sampler
	}
	return grayscale.New(append(opts.samplerOptions(), grayscale.WithWorkers(e.Workers))...)
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func classifySamplerError(ctx context.Context, err error) *GenerationError {
	var ipe *grayscale.ImageProcessingError
	switch {
	case errors.As(err, &ipe):
		return imageProcessingFailed(ipe)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return cancelled(err)
	case ctx.Err() != nil:
		return cancelled(ctx.Err())
	default:
		return generationFailed(err, "sampler: %v", err)
	}
}

// assemble quantizes every row of buf. Rows run concurrently but each lands in
// its own slot, so the result is in buffer order.
func (e *Engine) assemble(ctx context.Context, buf *grayscale.Buffer, pal palette.Palette, invert bool) (*TextArt, error) {
	table := pal.Table(invert)
	width, height := buf.Width(), buf.Height()
	rowBytes := width * maxGlyphLen(pal)

	rows := make([]string, height)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for y := 0; y < height; y++ {
		if ctx.Err() != nil || gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = generationFailed(nil, "row %d: %v", y, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				return err
			}
			if gctx.Err() != nil {
				return nil
			}
			var b strings.Builder
			b.Grow(rowBytes)
			for _, s := range buf.Row(y) {
				b.WriteRune(table[s])
			}
			rows[y] = b.String()
			return nil
		})
	}
	err := g.Wait()
	if cerr := ctx.Err(); cerr != nil {
		return nil, cancelled(cerr)
	}
	if err != nil {
		var ge *GenerationError
		if errors.As(err, &ge) {
			return nil, ge
		}
		return nil, generationFailed(err, "assemble: %v", err)
	}
	return newTextArt(rows, width), nil
}

func maxGlyphLen(pal palette.Palette) int {
	n := 1
	for i := 0; i < pal.Len(); i++ {
		if l := utf8.RuneLen(pal.Glyph(i)); l > n {
			n = l
		}
	}
	return n
}

func dims(buf *grayscale.Buffer) (int, int) {
	if buf == nil {
		return 0, 0
	}
	return buf.Width(), buf.Height()
}
