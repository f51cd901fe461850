// Package grayscale converts decoded images into downscaled luminance buffers.
//
// This is the first stage of the text art pipeline. A [Sampler] takes an
// [image.Image], a target column count and an aspect correction factor, and
// returns a [Buffer] of 8-bit luminance samples laid out row-major from the
// top-left corner.
//
// # Sizing
//
// The output height is derived from the source aspect ratio:
//
//	height = max(1, round(width * srcHeight/srcWidth * aspectCorrection))
//
// Rounding is half away from zero ([math.Round]). The aspect correction
// compensates for terminal glyph cells being taller than they are wide; 0.5
// is the usual value. Both dimensions are checked against the sampler's
// max dimension before anything is allocated.
//
// # Luminance
//
// Resampling uses a box (area-average) filter by default, which anti-aliases
// detail that would otherwise alias into a handful of output columns. Each
// resampled pixel is reduced to luminance with BT.709 weights unless another
// [Luma] is selected, and alpha is handled by an [AlphaPolicy]. The default
// policy composites onto white, so fully transparent pixels read as the
// lightest value.
//
// # Errors
//
// Failures are reported as [*ImageProcessingError] values tagged with an
// [ErrorKind]. Cancellation is the one exception: when the context is done the
// sampler returns the context's error unchanged so callers can tell an abort
// from a bad input.
package grayscale
