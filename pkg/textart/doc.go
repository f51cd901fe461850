// Package textart turns images into grids of characters.
//
// A [Generator] takes a decoded image, a [palette.Palette] and
// [ProcessingOptions]. It asks a [grayscale.Sampler] for a luminance buffer
// sized to the requested column count, maps every sample to a glyph with
// [palette.Quantize] and returns the rows as an immutable [TextArt].
//
// # Pipeline
//
//	image ──► Sampler.GrayscalePixels ──► Buffer ──► Quantize per sample ──► TextArt
//
// The palette is checked first; an empty palette fails with
// [KindInvalidPalette] without touching the image. Sampler failures are wrapped
// as [KindImageProcessingFailed] with the original [*grayscale.ImageProcessingError]
// reachable through errors.As.
//
// # Concurrency
//
// Rows are independent, so the [Engine] quantizes them on a bounded pool of
// goroutines and writes each row into its own slot, which keeps the output in
// top-to-bottom order. The context is checked before sampling, after sampling
// and at every row boundary. On cancellation the partial rows are dropped and
// a single [KindCancelled] error is returned.
//
// An Engine holds no per-call state and may be shared between goroutines.
// Generating twice from the same inputs yields identical output.
//
// [grayscale.Sampler]: github.com/matzehuels/textart/pkg/grayscale
// [palette.Palette]: github.com/matzehuels/textart/pkg/palette
// [palette.Quantize]: github.com/matzehuels/textart/pkg/palette
package textart
