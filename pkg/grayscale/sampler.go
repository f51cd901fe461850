package grayscale

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxDimension caps both output dimensions when none is configured.
	DefaultMaxDimension = 4096

	// MaxSamples bounds width*height of the resampled surface regardless of
	// the dimension cap.
	MaxSamples = 1 << 28
)

// Sampler produces a luminance buffer from an image.
//
// Implementations must return a buffer whose Width() equals width and whose
// Height() equals [TargetHeight] for the image bounds. When ctx is done they
// return ctx.Err() unchanged; every other failure is an [*ImageProcessingError].
type Sampler interface {
	GrayscalePixels(ctx context.Context, img image.Image, width int, aspectCorrection float64) (*Buffer, error)
}

// Option configures a [DefaultSampler].
type Option func(*DefaultSampler)

// WithMaxDimension sets the largest allowed output width or height.
// Zero or negative values select [DefaultMaxDimension].
func WithMaxDimension(n int) Option {
	return func(s *DefaultSampler) { s.maxDimension = n }
}

// WithFilter sets the resampling kernel.
func WithFilter(f Filter) Option {
	return func(s *DefaultSampler) { s.filter = f }
}

// WithLuma sets the luminance weighting.
func WithLuma(l Luma) Option {
	return func(s *DefaultSampler) { s.luma = l }
}

// WithAlphaPolicy sets how translucent pixels are treated.
func WithAlphaPolicy(p AlphaPolicy) Option {
	return func(s *DefaultSampler) { s.alpha = p }
}

// WithWorkers bounds the goroutines used for the luminance pass.
// Zero or negative values select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *DefaultSampler) { s.workers = n }
}

// DefaultSampler resamples with imaging and reduces pixels to luminance in
// parallel. The zero value is not usable; construct it with [New].
type DefaultSampler struct {
	maxDimension int
	filter       Filter
	luma         Luma
	alpha        AlphaPolicy
	workers      int
}

// New returns a sampler with a box filter, BT.709 weights, white alpha
// compositing and a [DefaultMaxDimension] cap, adjusted by opts.
func New(opts ...Option) *DefaultSampler {
	s := &DefaultSampler{
		maxDimension: DefaultMaxDimension,
		filter:       FilterBox,
		luma:         LumaRec709,
		alpha:        AlphaWhite,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxDimension <= 0 {
		s.maxDimension = DefaultMaxDimension
	}
	if s.workers <= 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	return s
}

// MaxDimension reports the effective dimension cap.
func (s *DefaultSampler) MaxDimension() int { return s.maxDimension }

// TargetHeight returns the output row count for a source of srcW x srcH
// sampled at width columns: max(1, round(width * srcH/srcW * aspect)).
// The result saturates at math.MaxInt for absurd inputs.
func TargetHeight(srcW, srcH, width int, aspect float64) int {
	h := targetHeight(srcW, srcH, width, aspect)
	if h >= math.MaxInt {
		return math.MaxInt
	}
	return int(h)
}

func targetHeight(srcW, srcH, width int, aspect float64) float64 {
	h := math.Round(float64(width) * float64(srcH) / float64(srcW) * aspect)
	if h < 1 || math.IsNaN(h) {
		return 1
	}
	return h
}

// GrayscalePixels implements [Sampler].
func (s *DefaultSampler) GrayscalePixels(ctx context.Context, img image.Image, width int, aspectCorrection float64) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, invalidImage("no image")
	}
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, invalidImage(fmt.Sprintf("empty bounds %v", bounds))
	}
	if width < 1 {
		return nil, processingFailed("target width must be at least 1, got %d", width)
	}
	if math.IsNaN(aspectCorrection) || math.IsInf(aspectCorrection, 0) || aspectCorrection <= 0 {
		return nil, processingFailed("aspect correction must be positive and finite, got %v", aspectCorrection)
	}

	h := targetHeight(srcW, srcH, width, aspectCorrection)
	if width > s.maxDimension || h > float64(s.maxDimension) {
		return nil, tooLarge(width, TargetHeight(srcW, srcH, width, aspectCorrection), s.maxDimension)
	}
	height := int(h)
	if int64(width)*int64(height) > MaxSamples {
		return nil, contextCreationFailed("%dx%d surface exceeds %d samples", width, height, MaxSamples)
	}

	resized, err := s.resize(img, width, height)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b := resized.Bounds(); b.Dx() != width || b.Dy() != height {
		return nil, processingFailed("resampler produced %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}

	samples, err := s.luminance(ctx, resized)
	if err != nil {
		return nil, err
	}
	return newBuffer(width, height, samples), nil
}

// resize runs the resampler, converting its panics into errors. Allocation
// failures surface as context creation failures.
func (s *DefaultSampler) resize(img image.Image, width, height int) (out *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			if isAllocationPanic(r, msg) {
				err = contextCreationFailed("allocate %dx%d surface: %s", width, height, msg)
				return
			}
			err = processingFailed("resample: %s", msg)
		}
	}()
	out = imaging.Resize(img, width, height, s.filter.resampleFilter())
	if out == nil {
		return nil, processingFailed("resampler returned no image")
	}
	return out, nil
}

func isAllocationPanic(r any, msg string) bool {
	if _, ok := r.(runtime.Error); !ok {
		return false
	}
	return strings.Contains(msg, "makeslice") || strings.Contains(msg, "out of memory")
}

// luminance converts every pixel of img, one row per task.
func (s *DefaultSampler) luminance(ctx context.Context, img *image.NRGBA) ([]uint8, error) {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	samples := make([]uint8, width*height)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for y := 0; y < height; y++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := img.Pix[y*img.Stride : y*img.Stride+width*4]
			dst := samples[y*width : (y+1)*width]
			for x := range dst {
				p := src[x*4 : x*4+4 : x*4+4]
				dst[x] = Luminance(nrgba(p), s.luma, s.alpha)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The group context is cancelled after Wait; report the caller's state.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func nrgba(p []uint8) color.NRGBA {
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}
