package textart

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/grayscale"
)

// ErrorKind tags the variant of a [GenerationError].
type ErrorKind int

const (
	// KindInvalidPalette means the palette had no glyphs.
	KindInvalidPalette ErrorKind = iota + 1
	// KindImageProcessingFailed wraps a sampler failure; see GenerationError.Image.
	KindImageProcessingFailed
	// KindCancelled means the context was done before the art was complete.
	KindCancelled
	// KindGenerationFailed covers invalid options and unexpected internal failures.
	KindGenerationFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidPalette:
		return "invalid palette"
	case KindImageProcessingFailed:
		return "image processing failed"
	case KindCancelled:
		return "cancelled"
	case KindGenerationFailed:
		return "generation failed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// GenerationError is the failure type returned by generators.
type GenerationError struct {
	Kind ErrorKind

	// Image is the sampler failure for KindImageProcessingFailed.
	Image *grayscale.ImageProcessingError

	// Reason is a diagnostic for KindInvalidPalette and KindGenerationFailed.
	Reason string

	// Cause is the context error for KindCancelled, or the underlying error
	// behind a KindGenerationFailed, if any.
	Cause error
}

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrInvalidPalette        = &GenerationError{Kind: KindInvalidPalette}
	ErrImageProcessingFailed = &GenerationError{Kind: KindImageProcessingFailed}
	ErrCancelled             = &GenerationError{Kind: KindCancelled}
	ErrGenerationFailed      = &GenerationError{Kind: KindGenerationFailed}
)

func (e *GenerationError) Error() string {
	switch {
	case e.Kind == KindImageProcessingFailed && e.Image != nil:
		return "textart: " + e.Image.Error()
	case e.Reason != "":
		return fmt.Sprintf("textart: %s: %s", e.Kind, e.Reason)
	case e.Cause != nil:
		return fmt.Sprintf("textart: %s: %v", e.Kind, e.Cause)
	default:
		return "textart: " + e.Kind.String()
	}
}

// Unwrap exposes the wrapped image error or cause.
func (e *GenerationError) Unwrap() error {
	if e.Image != nil {
		return e.Image
	}
	return e.Cause
}

// Is reports whether target is a *GenerationError of the same kind.
func (e *GenerationError) Is(target error) bool {
	t, ok := target.(*GenerationError)
	return ok && t.Kind == e.Kind
}

// Code maps the kind onto the shared error codes. Wrapped image failures keep
// the sampler's code, and a coded cause (such as an invalid option) keeps its own.
func (e *GenerationError) Code() errors.Code {
	switch e.Kind {
	case KindInvalidPalette:
		return errors.ErrCodeInvalidPalette
	case KindImageProcessingFailed:
		if e.Image != nil {
			return e.Image.Code()
		}
		return errors.ErrCodeProcessingFailed
	case KindCancelled:
		if stderrors.Is(e.Cause, context.DeadlineExceeded) {
			return errors.ErrCodeTimeout
		}
		return errors.ErrCodeCancelled
	default:
		if code := errors.GetCode(e.Cause); code != "" {
			return code
		}
		return errors.ErrCodeGenerationFailed
	}
}

func invalidPalette(reason string) *GenerationError {
	return &GenerationError{Kind: KindInvalidPalette, Reason: reason}
}

func imageProcessingFailed(err *grayscale.ImageProcessingError) *GenerationError {
	return &GenerationError{Kind: KindImageProcessingFailed, Image: err}
}

func cancelled(cause error) *GenerationError {
	return &GenerationError{Kind: KindCancelled, Cause: cause}
}

func generationFailed(cause error, format string, args ...any) *GenerationError {
	return &GenerationError{Kind: KindGenerationFailed, Reason: fmt.Sprintf(format, args...), Cause: cause}
}
