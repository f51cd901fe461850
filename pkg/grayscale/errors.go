package grayscale

import (
	"fmt"

	terrors "github.com/matzehuels/textart/pkg/errors"
)

// ErrorKind tags the variant of an [ImageProcessingError].
type ErrorKind int

const (
	// KindInvalidImage means the source had no pixels or could not be read.
	KindInvalidImage ErrorKind = iota + 1
	// KindImageTooLarge means the requested output exceeds the max dimension.
	KindImageTooLarge
	// KindContextCreationFailed means the resampling surface could not be allocated.
	KindContextCreationFailed
	// KindProcessingFailed covers every other failure; Reason carries a diagnostic.
	KindProcessingFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidImage:
		return "invalid image"
	case KindImageTooLarge:
		return "image too large"
	case KindContextCreationFailed:
		return "context creation failed"
	case KindProcessingFailed:
		return "processing failed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ImageProcessingError is the failure type returned by samplers.
//
// Width, Height and MaxDimension are set for [KindImageTooLarge] and hold the
// requested output size and the limit it broke. Reason is a diagnostic string
// for [KindContextCreationFailed] and [KindProcessingFailed].
type ImageProcessingError struct {
	Kind         ErrorKind
	Width        int
	Height       int
	MaxDimension int
	Reason       string
}

// Sentinels for errors.Is. Matching compares Kind only, so
// errors.Is(err, ErrImageTooLarge) holds for any too-large payload.
var (
	ErrInvalidImage          = &ImageProcessingError{Kind: KindInvalidImage}
	ErrImageTooLarge         = &ImageProcessingError{Kind: KindImageTooLarge}
	ErrContextCreationFailed = &ImageProcessingError{Kind: KindContextCreationFailed}
	ErrProcessingFailed      = &ImageProcessingError{Kind: KindProcessingFailed}
)

func (e *ImageProcessingError) Error() string {
	switch e.Kind {
	case KindImageTooLarge:
		return fmt.Sprintf("grayscale: image too large: %dx%d exceeds max dimension %d", e.Width, e.Height, e.MaxDimension)
	case KindInvalidImage:
		if e.Reason != "" {
			return "grayscale: invalid image: " + e.Reason
		}
		return "grayscale: invalid image"
	default:
		if e.Reason != "" {
			return fmt.Sprintf("grayscale: %s: %s", e.Kind, e.Reason)
		}
		return "grayscale: " + e.Kind.String()
	}
}

// Is reports whether target is an *ImageProcessingError of the same kind.
func (e *ImageProcessingError) Is(target error) bool {
	t, ok := target.(*ImageProcessingError)
	return ok && t.Kind == e.Kind
}

// Code maps the kind onto the shared error codes.
func (e *ImageProcessingError) Code() terrors.Code {
	switch e.Kind {
	case KindInvalidImage:
		return terrors.ErrCodeInvalidImage
	case KindImageTooLarge:
		return terrors.ErrCodeImageTooLarge
	case KindContextCreationFailed:
		return terrors.ErrCodeContextCreation
	default:
		return terrors.ErrCodeProcessingFailed
	}
}

func invalidImage(reason string) *ImageProcessingError {
	return &ImageProcessingError{Kind: KindInvalidImage, Reason: reason}
}

func tooLarge(width, height, maxDimension int) *ImageProcessingError {
	return &ImageProcessingError{Kind: KindImageTooLarge, Width: width, Height: height, MaxDimension: maxDimension}
}

func contextCreationFailed(format string, args ...any) *ImageProcessingError {
	return &ImageProcessingError{Kind: KindContextCreationFailed, Reason: fmt.Sprintf(format, args...)}
}

func processingFailed(format string, args ...any) *ImageProcessingError {
	return &ImageProcessingError{Kind: KindProcessingFailed, Reason: fmt.Sprintf(format, args...)}
}
