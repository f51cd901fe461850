// Package pipeline turns encoded images into rendered text art.
//
// # Overview
//
// The pipeline has three stages:
//
//  1. Decode: image bytes → [image.Image] (png, jpeg, gif, bmp, tiff, webp)
//  2. Generate: image → [textart.TextArt] using a palette and processing options
//  3. Render: text art → output formats (text, json, png)
//
// A [Runner] executes the stages with caching. The generated art is cached
// under a key derived from the image hash and every option that changes the
// rows, so a cache hit skips generation and the full decode. The image header
// is still checked against the pixel budget. Rendered artifacts are cached per
// format.
//
// # Usage
//
//	runner := pipeline.NewRunner(fileCache, nil, logger)
//	result, err := runner.Execute(ctx, imageData, pipeline.Options{
//	    Width:   80,
//	    Palette: "blocks",
//	    Formats: []string{"text", "png"},
//	})
//
// Both the CLI and the HTTP API share this package so the caching and
// validation rules are identical.
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/textart/pkg/cache"
	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/grayscale"
	"github.com/matzehuels/textart/pkg/imageio"
	"github.com/matzehuels/textart/pkg/palette"
	"github.com/matzehuels/textart/pkg/sink"
	"github.com/matzehuels/textart/pkg/textart"
)

// =============================================================================
// Constants
// =============================================================================

// Default values for pipeline options.
const (
	DefaultWidth            = textart.DefaultTargetWidth
	DefaultAspectCorrection = textart.DefaultAspectCorrection
	DefaultMaxPixels        = imageio.DefaultMaxPixels
	DefaultFormat           = string(sink.FormatText)
)

// CustomPaletteLabel names a user supplied glyph ramp in metadata.
const CustomPaletteLabel = "custom"

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. String fields are parsed by
// [Options.ValidateAndSetDefaults]; zero values select defaults.
type Options struct {
	// Generation
	Width            int     `json:"width,omitempty"`
	AspectCorrection float64 `json:"aspect,omitempty"`
	MaxDimension     int     `json:"max_dimension,omitempty"`
	Invert           bool    `json:"invert,omitempty"`
	Palette          string  `json:"palette,omitempty"` // Preset name
	CustomPalette    string  `json:"chars,omitempty"`   // Glyph ramp; wins over Palette
	Filter           string  `json:"filter,omitempty"`
	Luma             string  `json:"luma,omitempty"`
	Alpha            string  `json:"alpha,omitempty"`

	// Decode
	MaxPixels int `json:"max_pixels,omitempty"`

	// Render
	Formats []string `json:"formats,omitempty"`

	// Refresh skips cache reads. Fresh results are still written.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	pal        palette.Palette
	processing textart.ProcessingOptions
	formats    []sink.Format
	validated  bool
}

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.AspectCorrection == 0 {
		o.AspectCorrection = DefaultAspectCorrection
	}
	if o.MaxPixels == 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	pal, err := palette.Resolve(o.Palette, o.CustomPalette)
	if err != nil {
		return err
	}
	filter, err := grayscale.ParseFilter(o.Filter)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "invalid filter")
	}
	luma, err := grayscale.ParseLuma(o.Luma)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "invalid luma")
	}
	alpha, err := grayscale.ParseAlphaPolicy(o.Alpha)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "invalid alpha policy")
	}
	formats, err := parseFormats(o.Formats)
	if err != nil {
		return err
	}
	if o.MaxPixels < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "max pixels cannot be negative, got %d", o.MaxPixels)
	}

	processing := textart.ProcessingOptions{
		TargetWidth:      o.Width,
		AspectCorrection: o.AspectCorrection,
		MaxDimension:     o.MaxDimension,
		Invert:           o.Invert,
		Filter:           filter,
		Luma:             luma,
		Alpha:            alpha,
	}
	if err := processing.Validate(); err != nil {
		return err
	}

	o.pal = pal
	o.processing = processing
	o.formats = formats
	o.Formats = make([]string, len(formats))
	for i, f := range formats {
		o.Formats[i] = string(f)
	}
	o.validated = true
	return nil
}

// parseFormats resolves format names, dropping duplicates.
func parseFormats(names []string) ([]sink.Format, error) {
	seen := make(map[sink.Format]bool, len(names))
	out := make([]sink.Format, 0, len(names))
	for _, name := range names {
		f, err := sink.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// PaletteLabel returns the preset name, or "custom" for a user ramp.
func (o *Options) PaletteLabel() string {
	if o.CustomPalette != "" {
		return CustomPaletteLabel
	}
	if o.Palette == "" {
		return palette.DefaultName
	}
	return strings.ToLower(strings.TrimSpace(o.Palette))
}

// ResolvedPalette returns the palette picked during validation.
func (o *Options) ResolvedPalette() palette.Palette { return o.pal }

// ProcessingOptions returns the generation options built during validation.
func (o *Options) ProcessingOptions() textart.ProcessingOptions { return o.processing }

// ArtKeyOpts returns cache key options for generated art.
func (o *Options) ArtKeyOpts() cache.ArtKeyOpts {
	return cache.ArtKeyOpts{
		Width:            o.processing.TargetWidth,
		AspectCorrection: o.processing.AspectCorrection,
		MaxDimension:     o.processing.MaxDimension,
		Glyphs:           o.pal.String(),
		Invert:           o.processing.Invert,
		Filter:           o.processing.Filter.String(),
		Luma:             o.processing.Luma.String(),
		Alpha:            o.processing.Alpha.String(),
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
// Palette and invert only reach the JSON metadata.
func (o *Options) ArtifactKeyOpts(f sink.Format) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: string(f)}
	if f == sink.FormatJSON {
		opts.Palette = o.PaletteLabel()
		opts.Invert = o.Invert
	}
	return opts
}

func (o *Options) meta() sink.Meta {
	return sink.Meta{Palette: o.PaletteLabel(), Invert: o.Invert}
}

// =============================================================================
// Result Types
// =============================================================================

// Result holds the outputs of a pipeline run.
type Result struct {
	RunID       uuid.UUID         // Unique per Execute call
	ImageHash   string            // SHA-256 of the input bytes
	ArtHash     string            // SHA-256 of the generated rows
	ImageFormat string            // Format reported by the image header
	Art         *textart.TextArt  // Generated text art
	Artifacts   map[string][]byte // Rendered outputs keyed by format
	Stats       Stats
	CacheInfo   CacheInfo
}

// Stats holds execution timings and sizes.
type Stats struct {
	DecodeTime   time.Duration
	GenerateTime time.Duration
	RenderTime   time.Duration
	ImageWidth   int // From the header on an art cache hit
	ImageHeight  int
	Columns      int
	Rows         int
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	ArtHit    bool // Generated rows came from cache (only the header was read)
	RenderHit bool // Every artifact came from cache
}
