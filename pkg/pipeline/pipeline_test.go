package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/textart/pkg/cache"
	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/observability"
	"github.com/matzehuels/textart/pkg/palette"
	"github.com/matzehuels/textart/pkg/sink"
	"github.com/matzehuels/textart/pkg/textart"
)

// =============================================================================
// Test doubles
// =============================================================================

// memCache is an in-memory cache that counts writes.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func (c *memCache) writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

// countingGenerator wraps the default engine and counts calls.
type countingGenerator struct {
	calls atomic.Int32
	err   error
}

func (g *countingGenerator) Generate(ctx context.Context, img image.Image, pal palette.Palette, opts textart.ProcessingOptions) (*textart.TextArt, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	return textart.NewEngine(nil, nil).Generate(ctx, img, pal, opts)
}

// recordingHooks records pipeline stage names.
type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *recordingHooks) OnDecodeStart(context.Context, int) { h.add("decode") }
func (h *recordingHooks) OnGenerateStart(context.Context, int, string) {
	h.add("generate")
}
func (h *recordingHooks) OnRenderStart(context.Context, []string) { h.add("render") }

func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// =============================================================================
// Options
// =============================================================================

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should be valid: %v", err)
	}
	if opts.Width != DefaultWidth {
		t.Errorf("Width = %d, want %d", opts.Width, DefaultWidth)
	}
	if opts.AspectCorrection != DefaultAspectCorrection {
		t.Errorf("AspectCorrection = %v, want %v", opts.AspectCorrection, DefaultAspectCorrection)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats = %v, want [%s]", opts.Formats, DefaultFormat)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if opts.PaletteLabel() != palette.DefaultName {
		t.Errorf("PaletteLabel = %q", opts.PaletteLabel())
	}
	if opts.ResolvedPalette().Len() != palette.Default().Len() {
		t.Error("default palette not resolved")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"negative width", Options{Width: -1}, errors.ErrCodeInvalidOption},
		{"negative aspect", Options{AspectCorrection: -0.5}, errors.ErrCodeInvalidOption},
		{"negative max dimension", Options{MaxDimension: -1}, errors.ErrCodeInvalidOption},
		{"unknown palette", Options{Palette: "nope"}, errors.ErrCodeInvalidPalette},
		{"bad palette name", Options{Palette: "../x"}, errors.ErrCodeInvalidPalette},
		{"wide custom glyph", Options{CustomPalette: "漢 "}, errors.ErrCodeInvalidPalette},
		{"unknown filter", Options{Filter: "blur"}, errors.ErrCodeInvalidOption},
		{"unknown luma", Options{Luma: "hsv"}, errors.ErrCodeInvalidOption},
		{"unknown alpha", Options{Alpha: "grey"}, errors.ErrCodeInvalidOption},
		{"unknown format", Options{Formats: []string{"svg"}}, errors.ErrCodeInvalidFormat},
		{"negative pixels", Options{MaxPixels: -1}, errors.ErrCodeInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (%v)", got, tt.code, err)
			}
		})
	}
}

func TestOptionsFormats(t *testing.T) {
	opts := Options{Formats: []string{"txt", "PNG", "text", "json"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	want := []string{"text", "png", "json"}
	if strings.Join(opts.Formats, ",") != strings.Join(want, ",") {
		t.Errorf("Formats = %v, want %v", opts.Formats, want)
	}
}

func TestOptionsIdempotent(t *testing.T) {
	opts := Options{Palette: "blocks", Formats: []string{"txt"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts.ArtKeyOpts()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.ArtKeyOpts() != first {
		t.Error("second validation changed the key options")
	}
}

func TestArtKeyOpts(t *testing.T) {
	keyer := cache.NewDefaultKeyer()
	key := func(o Options) string {
		t.Helper()
		if err := o.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}
		return keyer.ArtKey("img", o.ArtKeyOpts())
	}

	base := key(Options{})
	if key(Options{Width: DefaultWidth, Palette: palette.DefaultName}) != base {
		t.Error("explicit defaults should share the key")
	}
	if key(Options{Palette: palette.Detailed}) != base {
		t.Error("aliases with identical glyphs should share the key")
	}
	if key(Options{Formats: []string{"png"}}) != base {
		t.Error("formats must not change the art key")
	}

	variants := map[string]Options{
		"width":   {Width: 80},
		"aspect":  {AspectCorrection: 0.6},
		"invert":  {Invert: true},
		"palette": {Palette: palette.Blocks},
		"custom":  {CustomPalette: "#. "},
		"filter":  {Filter: "lanczos"},
		"luma":    {Luma: "rec601"},
		"alpha":   {Alpha: "black"},
		"maxdim":  {MaxDimension: 512},
	}
	for name, o := range variants {
		if key(o) == base {
			t.Errorf("%s should change the art key", name)
		}
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	a := Options{Palette: "simple", Invert: true}
	b := Options{Palette: "blocks"}
	for _, o := range []*Options{&a, &b} {
		if err := o.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}
	}
	if a.ArtifactKeyOpts(sink.FormatText) != b.ArtifactKeyOpts(sink.FormatText) {
		t.Error("text artifacts depend only on the rows")
	}
	if a.ArtifactKeyOpts(sink.FormatJSON) == b.ArtifactKeyOpts(sink.FormatJSON) {
		t.Error("json artifacts embed palette and invert")
	}
}

// =============================================================================
// Runner
// =============================================================================

func TestExecute(t *testing.T) {
	runner := NewRunner(newMemCache(), nil, nil)
	result, err := runner.Execute(context.Background(), gradientPNG(t, 40, 20), Options{
		Width:   20,
		Palette: "simple",
		Formats: []string{"text", "json", "png"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Art.Width() != 20 || result.Art.Height() != 5 {
		t.Errorf("art = %dx%d, want 20x5", result.Art.Width(), result.Art.Height())
	}
	if result.ImageFormat != "png" {
		t.Errorf("ImageFormat = %q", result.ImageFormat)
	}
	if result.Stats.ImageWidth != 40 || result.Stats.ImageHeight != 20 {
		t.Errorf("image stats = %dx%d", result.Stats.ImageWidth, result.Stats.ImageHeight)
	}
	if result.ImageHash == "" || result.ArtHash == "" {
		t.Error("hashes should be set")
	}
	if result.CacheInfo.ArtHit || result.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", result.CacheInfo)
	}

	if got := string(result.Artifacts["text"]); got != result.Art.String()+"\n" {
		t.Errorf("text artifact = %q", got)
	}
	var doc struct {
		Palette string   `json:"palette"`
		Rows    []string `json:"rows"`
	}
	if err := json.Unmarshal(result.Artifacts["json"], &doc); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if doc.Palette != "simple" || len(doc.Rows) != 5 {
		t.Errorf("json artifact = %+v", doc)
	}
	if !bytes.HasPrefix(result.Artifacts["png"], []byte("\x89PNG")) {
		t.Error("png artifact missing signature")
	}

	// Dark left edge, light right edge on the simple ramp
	row := []rune(result.Art.Row(0))
	if row[0] != '@' || !strings.ContainsRune(". ", row[len(row)-1]) {
		t.Errorf("row 0 = %q", result.Art.Row(0))
	}
}

func TestExecute_Cached(t *testing.T) {
	c := newMemCache()
	gen := &countingGenerator{}
	runner := NewRunner(c, nil, nil)
	runner.Generator = gen
	data := gradientPNG(t, 32, 32)
	opts := Options{Width: 16, Formats: []string{"text", "json"}}

	first, err := runner.Execute(context.Background(), data, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := runner.Execute(context.Background(), data, opts)
	if err != nil {
		t.Fatal(err)
	}

	if gen.calls.Load() != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls.Load())
	}
	if !second.CacheInfo.ArtHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if second.ImageFormat != "png" || second.Stats.ImageWidth != 32 || second.Stats.DecodeTime != 0 {
		t.Errorf("art hit should read only the header: format %q, stats %+v", second.ImageFormat, second.Stats)
	}
	if !first.Art.Equal(second.Art) {
		t.Error("cached art differs")
	}
	if first.RunID == second.RunID {
		t.Error("RunID should be unique per run")
	}
	if !bytes.Equal(first.Artifacts["json"], second.Artifacts["json"]) {
		t.Error("cached artifact differs")
	}

	// A different width misses
	opts.Width = 8
	third, err := runner.Execute(context.Background(), data, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.ArtHit || gen.calls.Load() != 2 {
		t.Error("changed width should regenerate")
	}
}

func TestExecute_Refresh(t *testing.T) {
	gen := &countingGenerator{}
	runner := NewRunner(newMemCache(), nil, nil)
	runner.Generator = gen
	data := gradientPNG(t, 16, 16)

	for i := 0; i < 2; i++ {
		result, err := runner.Execute(context.Background(), data, Options{Width: 8, Refresh: true})
		if err != nil {
			t.Fatal(err)
		}
		if result.CacheInfo.ArtHit || result.CacheInfo.RenderHit {
			t.Errorf("run %d: refresh should bypass reads", i)
		}
	}
	if gen.calls.Load() != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls.Load())
	}
}

func TestExecute_FailuresNotCached(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() context.Context
		data func(t *testing.T) []byte
		opts Options
		code errors.Code
	}{
		{
			name: "empty image",
			ctx:  context.Background,
			data: func(*testing.T) []byte { return nil },
			code: errors.ErrCodeInvalidImage,
		},
		{
			name: "garbage",
			ctx:  context.Background,
			data: func(*testing.T) []byte { return []byte("not an image") },
			code: errors.ErrCodeInvalidImage,
		},
		{
			name: "pixel budget",
			ctx:  context.Background,
			data: func(t *testing.T) []byte { return gradientPNG(t, 64, 64) },
			opts: Options{MaxPixels: 100},
			code: errors.ErrCodeImageTooLarge,
		},
		{
			name: "too large",
			ctx:  context.Background,
			data: func(t *testing.T) []byte { return gradientPNG(t, 10, 30) },
			opts: Options{Width: 10, MaxDimension: 10},
			code: errors.ErrCodeImageTooLarge,
		},
		{
			name: "cancelled",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			data: func(t *testing.T) []byte { return gradientPNG(t, 8, 8) },
			code: errors.ErrCodeCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMemCache()
			runner := NewRunner(c, nil, nil)
			_, err := runner.Execute(tt.ctx(), tt.data(t), tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (%v)", got, tt.code, err)
			}
			if c.writes() != 0 {
				t.Errorf("failed run wrote %d cache entries", c.writes())
			}
		})
	}
}

func TestExecute_CachedArtKeepsPixelBudget(t *testing.T) {
	runner := NewRunner(newMemCache(), nil, nil)
	data := gradientPNG(t, 100, 100)
	ctx := context.Background()

	if _, err := runner.Execute(ctx, data, Options{Width: 10}); err != nil {
		t.Fatal(err)
	}

	strict := Options{Width: 10, MaxPixels: 50}
	if _, err := runner.Execute(ctx, data, strict); errors.GetCode(err) != errors.ErrCodeImageTooLarge {
		t.Errorf("Execute with cached art: code = %v, want %v (%v)", errors.GetCode(err), errors.ErrCodeImageTooLarge, err)
	}
	if _, _, err := runner.GenerateWithCacheInfo(ctx, data, strict); errors.GetCode(err) != errors.ErrCodeImageTooLarge {
		t.Errorf("GenerateWithCacheInfo with cached art: code = %v, want %v (%v)", errors.GetCode(err), errors.ErrCodeImageTooLarge, err)
	}
}

func TestExecute_GeneratorError(t *testing.T) {
	c := newMemCache()
	runner := NewRunner(c, nil, nil)
	runner.Generator = &countingGenerator{err: textart.ErrGenerationFailed}

	_, err := runner.Execute(context.Background(), gradientPNG(t, 8, 8), Options{})
	if err == nil || !strings.HasPrefix(err.Error(), "generate:") {
		t.Fatalf("err = %v", err)
	}
	if c.writes() != 0 {
		t.Error("failed generation was cached")
	}
}

func TestExecute_Hooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	runner := NewRunner(newMemCache(), nil, nil)
	data := gradientPNG(t, 8, 8)
	if _, err := runner.Execute(context.Background(), data, Options{Width: 4}); err != nil {
		t.Fatal(err)
	}
	if _, err := runner.Execute(context.Background(), data, Options{Width: 4}); err != nil {
		t.Fatal(err)
	}

	want := "decode,generate,render"
	if got := strings.Join(hooks.events, ","); got != want {
		t.Errorf("events = %s, want %s (second run fully cached)", got, want)
	}
}

func TestRenderWithCacheInfo_Partial(t *testing.T) {
	runner := NewRunner(newMemCache(), nil, nil)
	art, err := textart.FromRows([]string{"@@..", "..@@"})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, hit, err := runner.RenderWithCacheInfo(ctx, art, Options{Formats: []string{"text"}}); err != nil || hit {
		t.Fatalf("first render = hit %v, err %v", hit, err)
	}
	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, art, Options{Formats: []string{"text", "json"}})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("json was never rendered; should not report a full hit")
	}
	if len(artifacts) != 2 || string(artifacts["text"]) != "@@..\n..@@\n" {
		t.Errorf("artifacts = %v", artifacts)
	}
	if _, hit, _ := runner.RenderWithCacheInfo(ctx, art, Options{Formats: []string{"json", "text"}}); !hit {
		t.Error("both formats should now be cached")
	}
}

func TestRenderWithCacheInfo_NilArt(t *testing.T) {
	runner := NewRunner(newMemCache(), nil, nil)
	artifacts, hit, err := runner.RenderWithCacheInfo(context.Background(), nil, Options{})
	if errors.GetCode(err) != errors.ErrCodeRenderFailed {
		t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), errors.ErrCodeRenderFailed, err)
	}
	if artifacts != nil || hit {
		t.Errorf("got artifacts %v, hit %v", artifacts, hit)
	}
}

func TestRender_Cancelled(t *testing.T) {
	art, _ := textart.FromRows([]string{"#"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Render(ctx, art, Options{}); errors.GetCode(err) != errors.ErrCodeCancelled {
		t.Errorf("code = %v", errors.GetCode(err))
	}

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if _, err := Render(ctx, art, Options{}); errors.GetCode(err) != errors.ErrCodeTimeout {
		t.Errorf("code = %v", errors.GetCode(err))
	}
}

func TestGenerateWithCacheInfo(t *testing.T) {
	runner := NewRunner(newMemCache(), nil, nil)
	data := gradientPNG(t, 10, 10)

	art, hit, err := runner.GenerateWithCacheInfo(context.Background(), data, Options{Width: 5})
	if err != nil || hit {
		t.Fatalf("first = hit %v, err %v", hit, err)
	}
	again, hit, err := runner.GenerateWithCacheInfo(context.Background(), data, Options{Width: 5})
	if err != nil || !hit {
		t.Fatalf("second = hit %v, err %v", hit, err)
	}
	if !art.Equal(again) {
		t.Error("cached art differs")
	}
}
