package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/observability"
	"github.com/matzehuels/textart/pkg/sink"
	"github.com/matzehuels/textart/pkg/textart"
)

// Render encodes art in every requested format. The context is checked
// between formats; PNG rasterization is the slow one.
func Render(ctx context.Context, art *textart.TextArt, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := render(ctx, art, opts, opts.formats)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(ctx context.Context, art *textart.TextArt, opts Options, formats []sink.Format) (map[string][]byte, error) {
	if art == nil {
		return nil, errors.New(errors.ErrCodeRenderFailed, "no text art to render")
	}
	artifacts := make(map[string][]byte, len(formats))
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return nil, contextError(err)
		}
		data, err := sink.Render(art, f, opts.meta())
		if errors.Is(err, errors.ErrCodeImageTooLarge) {
			return nil, err
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", f)
		}
		artifacts[string(f)] = data
	}
	return artifacts, nil
}

// contextError tags a context error with CANCELLED or TIMEOUT.
func contextError(err error) error {
	if err == context.DeadlineExceeded {
		return errors.Wrap(errors.ErrCodeTimeout, err, "deadline exceeded")
	}
	return errors.Wrap(errors.ErrCodeCancelled, err, "cancelled")
}
