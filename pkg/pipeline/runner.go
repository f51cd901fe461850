package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/textart/pkg/cache"
	"github.com/matzehuels/textart/pkg/observability"
	"github.com/matzehuels/textart/pkg/textart"
)

// Cache key types reported to observability hooks.
const (
	keyTypeArt      = "art"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, generator and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
	Generator textart.Generator
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// The generator is a default [textart.Engine]; replace Runner.Generator to inject another.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
		Generator: textart.NewEngine(nil, logger),
	}
}

// Execute runs the complete decode → generate → render pipeline with caching.
//
// Failed and cancelled generations are never cached.
func (r *Runner) Execute(ctx context.Context, imageData []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		RunID:     uuid.New(),
		ImageHash: cache.Hash(imageData),
		Artifacts: make(map[string][]byte),
	}
	logger := r.Logger.With("run", result.RunID.String()[:8])

	// Stage 1+2: Decode and generate; a cache hit only re-reads the header
	artKey := r.Keyer.ArtKey(result.ImageHash, opts.ArtKeyOpts())
	art, artHit := r.cachedArt(ctx, artKey, opts)
	if artHit {
		cfg, format, err := CheckBudget(imageData, opts)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		result.ImageFormat = format
		result.Stats.ImageWidth = cfg.Width
		result.Stats.ImageHeight = cfg.Height
	} else {
		decodeStart := time.Now()
		img, format, err := Decode(ctx, imageData, opts)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		result.ImageFormat = format
		result.Stats.DecodeTime = time.Since(decodeStart)
		result.Stats.ImageWidth = img.Bounds().Dx()
		result.Stats.ImageHeight = img.Bounds().Dy()

		logger.Info("decoded image",
			"format", format,
			"width", result.Stats.ImageWidth,
			"height", result.Stats.ImageHeight,
			"duration", result.Stats.DecodeTime)

		generateStart := time.Now()
		art, err = Generate(ctx, r.Generator, img, opts)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		result.Stats.GenerateTime = time.Since(generateStart)
		r.storeArt(ctx, artKey, art)
	}
	result.Art = art
	result.ArtHash = cache.Hash([]byte(art.String()))
	result.Stats.Columns = art.Width()
	result.Stats.Rows = art.Height()
	result.CacheInfo.ArtHit = artHit

	logger.Info("generated text art",
		"columns", art.Width(),
		"rows", art.Height(),
		"palette", opts.PaletteLabel(),
		"cached", artHit,
		"duration", result.Stats.GenerateTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, art, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// GenerateWithCacheInfo decodes and converts an image with caching and
// returns cache hit info.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, imageData []byte, opts Options) (*textart.TextArt, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	key := r.Keyer.ArtKey(cache.Hash(imageData), opts.ArtKeyOpts())
	if art, hit := r.cachedArt(ctx, key, opts); hit {
		if _, _, err := CheckBudget(imageData, opts); err != nil {
			return nil, false, err
		}
		return art, true, nil
	}

	img, _, err := Decode(ctx, imageData, opts)
	if err != nil {
		return nil, false, err
	}
	art, err := Generate(ctx, r.Generator, img, opts)
	if err != nil {
		return nil, false, err
	}
	r.storeArt(ctx, key, art)
	return art, false, nil
}

// RenderWithCacheInfo renders artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, art *textart.TextArt, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	if art == nil {
		artifacts, err := Render(ctx, art, opts)
		return artifacts, false, err
	}

	hooks := observability.Cache()
	artHash := cache.Hash([]byte(art.String()))
	keys := make(map[string]string, len(opts.formats))

	// Collect cached formats; render only the rest
	artifacts := make(map[string][]byte, len(opts.formats))
	missing := opts.formats[:0:0]
	for _, f := range opts.formats {
		key := r.Keyer.ArtifactKey(artHash, opts.ArtifactKeyOpts(f))
		keys[string(f)] = key
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				hooks.OnCacheHit(ctx, keyTypeArtifact)
				artifacts[string(f)] = data
				continue
			}
		}
		hooks.OnCacheMiss(ctx, keyTypeArtifact)
		missing = append(missing, f)
	}
	if len(missing) == 0 {
		return artifacts, true, nil // All artifacts from cache
	}

	pipelineHooks := observability.Pipeline()
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}
	pipelineHooks.OnRenderStart(ctx, names)
	start := time.Now()
	rendered, err := render(ctx, art, opts, missing)
	pipelineHooks.OnRenderComplete(ctx, names, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		if err := r.Cache.Set(ctx, keys[format], data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
		}
	}
	return artifacts, false, nil
}

// cachedArt returns the art stored under key, unless opts.Refresh is set.
// Undecodable entries count as misses.
func (r *Runner) cachedArt(ctx context.Context, key string, opts Options) (*textart.TextArt, bool) {
	hooks := observability.Cache()
	if opts.Refresh {
		hooks.OnCacheMiss(ctx, keyTypeArt)
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, keyTypeArt)
		return nil, false
	}
	var art textart.TextArt
	if err := json.Unmarshal(data, &art); err != nil {
		r.Logger.Debug("discarding unreadable cache entry", "error", err)
		hooks.OnCacheMiss(ctx, keyTypeArt)
		return nil, false
	}
	hooks.OnCacheHit(ctx, keyTypeArt)
	return &art, true
}

func (r *Runner) storeArt(ctx context.Context, key string, art *textart.TextArt) {
	data, err := json.Marshal(art)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLArt); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeArt, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
