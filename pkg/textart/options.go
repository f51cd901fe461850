package textart

import (
	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/grayscale"
)

// Default processing values.
const (
	DefaultTargetWidth      = 100
	DefaultAspectCorrection = 0.5
)

// ProcessingOptions controls a single generation.
//
// MaxDimension, Filter, Luma and Alpha configure the built-in sampler. An
// [Engine] with an injected sampler leaves those settings to that sampler.
type ProcessingOptions struct {
	TargetWidth      int                   // Output columns (>= 1)
	AspectCorrection float64               // Height factor for non-square glyph cells (> 0)
	MaxDimension     int                   // Upper bound on width and height; 0 selects grayscale.DefaultMaxDimension
	Invert           bool                  // Map dark samples to sparse glyphs
	Filter           grayscale.Filter      // Resampling kernel
	Luma             grayscale.Luma        // Channel weighting
	Alpha            grayscale.AlphaPolicy // Transparency handling
}

// DefaultOptions returns options for a 100-column render with 0.5 aspect correction.
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		TargetWidth:      DefaultTargetWidth,
		AspectCorrection: DefaultAspectCorrection,
	}
}

// WithDefaults returns a copy with zero width and aspect filled in.
func (o ProcessingOptions) WithDefaults() ProcessingOptions {
	if o.TargetWidth == 0 {
		o.TargetWidth = DefaultTargetWidth
	}
	if o.AspectCorrection == 0 {
		o.AspectCorrection = DefaultAspectCorrection
	}
	return o
}

// Validate checks the options. The width is not compared with MaxDimension
// here; the sampler reports that as an image-too-large failure.
func (o ProcessingOptions) Validate() error {
	if err := errors.ValidateTargetWidth(o.TargetWidth, 0); err != nil {
		return err
	}
	if err := errors.ValidateAspectCorrection(o.AspectCorrection); err != nil {
		return err
	}
	return errors.ValidateMaxDimension(o.MaxDimension)
}

// setsSampler reports whether any built-in sampler setting differs from its default.
func (o ProcessingOptions) setsSampler() bool {
	return o.MaxDimension != 0 || o.Filter != 0 || o.Luma != 0 || o.Alpha != 0
}

func (o ProcessingOptions) samplerOptions() []grayscale.Option {
	return []grayscale.Option{
		grayscale.WithMaxDimension(o.MaxDimension),
		grayscale.WithFilter(o.Filter),
		grayscale.WithLuma(o.Luma),
		grayscale.WithAlphaPolicy(o.Alpha),
	}
}
