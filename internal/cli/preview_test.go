package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/palette"
	"github.com/matzehuels/textart/pkg/pipeline"
	"github.com/matzehuels/textart/pkg/textart"
)

// fakeSource records the options of every generation.
type fakeSource struct {
	calls []pipeline.Options
	err   error
}

func (f *fakeSource) GenerateWithCacheInfo(ctx context.Context, data []byte, opts pipeline.Options) (*textart.TextArt, bool, error) {
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return nil, false, f.err
	}
	art, err := textart.FromRows([]string{strings.Repeat("#", opts.Width), strings.Repeat(".", opts.Width)})
	return art, len(f.calls) > 1, err
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key, runs the resulting command and feeds its message back.
func press(t *testing.T, m PreviewModel, key tea.KeyMsg) PreviewModel {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(PreviewModel)
	if cmd != nil {
		if msg, ok := cmd().(artMsg); ok {
			next, _ = m.Update(msg)
			m = next.(PreviewModel)
		}
	}
	return m
}

func newTestPreview(src artSource, base pipeline.Options) PreviewModel {
	return NewPreviewModel(context.Background(), src, []byte("img"), "cat.png", base)
}

func TestPreviewInitialState(t *testing.T) {
	src := &fakeSource{}
	m := newTestPreview(src, pipeline.Options{})

	if m.width != pipeline.DefaultWidth {
		t.Errorf("width = %d, want %d", m.width, pipeline.DefaultWidth)
	}
	if m.paletteLabel() != palette.DefaultName {
		t.Errorf("palette = %q, want %q", m.paletteLabel(), palette.DefaultName)
	}

	next, _ := m.Update(m.Init()())
	m = next.(PreviewModel)
	if m.loading || m.art == nil {
		t.Fatal("initial generation not applied")
	}
	if m.art.Width() != pipeline.DefaultWidth {
		t.Errorf("art width = %d", m.art.Width())
	}
}

func TestPreviewCustomPalette(t *testing.T) {
	src := &fakeSource{}
	m := newTestPreview(src, pipeline.Options{CustomPalette: "#-. "})
	if m.paletteLabel() != pipeline.CustomPaletteLabel {
		t.Fatalf("palette = %q, want custom", m.paletteLabel())
	}

	m = press(t, m, runes("p"))
	last := src.calls[len(src.calls)-1]
	if last.CustomPalette != "" || last.Palette != palette.Names()[0] {
		t.Errorf("p should switch to the first preset, got %+v", last)
	}
}

func TestPreviewKeys(t *testing.T) {
	names := palette.Names()

	tests := []struct {
		name  string
		keys  []tea.KeyMsg
		check func(t *testing.T, m PreviewModel, last pipeline.Options)
	}{
		{
			name: "wider",
			keys: []tea.KeyMsg{runes("+"), runes("=")},
			check: func(t *testing.T, m PreviewModel, last pipeline.Options) {
				if last.Width != 40+2*widthStep || m.art.Width() != last.Width {
					t.Errorf("width = %d", last.Width)
				}
			},
		},
		{
			name: "narrower",
			keys: []tea.KeyMsg{runes("-")},
			check: func(t *testing.T, m PreviewModel, last pipeline.Options) {
				if last.Width != 40-widthStep {
					t.Errorf("width = %d", last.Width)
				}
			},
		},
		{
			name: "invert",
			keys: []tea.KeyMsg{runes("i")},
			check: func(t *testing.T, m PreviewModel, last pipeline.Options) {
				if !last.Invert {
					t.Error("invert not toggled")
				}
			},
		},
		{
			name: "previous palette wraps",
			keys: []tea.KeyMsg{runes("P")},
			check: func(t *testing.T, m PreviewModel, last pipeline.Options) {
				want := names[len(names)-1]
				if last.Palette != want {
					t.Errorf("palette = %q, want %q", last.Palette, want)
				}
			},
		},
		{
			name: "fit terminal",
			keys: []tea.KeyMsg{runes("f")},
			check: func(t *testing.T, m PreviewModel, last pipeline.Options) {
				if last.Width != 72 {
					t.Errorf("width = %d, want 72", last.Width)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{}
			m := newTestPreview(src, pipeline.Options{Width: 40, Palette: names[0]})
			next, _ := m.Update(tea.WindowSizeMsg{Width: 72, Height: 30})
			m = next.(PreviewModel)
			for _, k := range tt.keys {
				m = press(t, m, k)
			}
			if len(src.calls) != len(tt.keys) {
				t.Fatalf("got %d generations, want %d", len(src.calls), len(tt.keys))
			}
			tt.check(t, m, src.calls[len(src.calls)-1])
		})
	}
}

func TestPreviewWidthBounds(t *testing.T) {
	src := &fakeSource{}
	m := newTestPreview(src, pipeline.Options{Width: widthStep, MaxDimension: widthStep + 1})

	for _, key := range []string{"-", "+"} {
		_, cmd := m.Update(runes(key))
		if cmd != nil {
			t.Errorf("%q past the width bounds should not regenerate", key)
		}
	}
}

func TestPreviewDropsStaleResults(t *testing.T) {
	src := &fakeSource{}
	m := newTestPreview(src, pipeline.Options{Width: 40})

	stale := m.Init()
	next, cmd := m.Update(runes("+"))
	m = next.(PreviewModel)

	next, _ = m.Update(stale())
	m = next.(PreviewModel)
	if m.art != nil || !m.loading {
		t.Fatal("result of a superseded generation was applied")
	}

	next, _ = m.Update(cmd())
	m = next.(PreviewModel)
	if m.art == nil || m.art.Width() != 40+widthStep {
		t.Error("current generation not applied")
	}
}

func TestPreviewQuit(t *testing.T) {
	m := newTestPreview(&fakeSource{}, pipeline.Options{})
	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("%q returned no command", key.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%q did not quit", key.String())
		}
	}
}

func TestPreviewView(t *testing.T) {
	src := &fakeSource{}
	m := newTestPreview(src, pipeline.Options{Width: 12})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 8, Height: 20})
	m = next.(PreviewModel)
	next, _ = m.Update(m.Init()())
	m = next.(PreviewModel)

	view := m.View()
	for _, want := range []string{"cat.png", "width 12", "########\n", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "#########") {
		t.Error("rows were not clipped to the terminal width")
	}
}

func TestPreviewViewError(t *testing.T) {
	src := &fakeSource{err: errors.New(errors.ErrCodeInvalidImage, "not an image")}
	m := newTestPreview(src, pipeline.Options{})
	next, _ := m.Update(m.Init()())
	m = next.(PreviewModel)

	if !strings.Contains(m.View(), "not an image") {
		t.Errorf("error not shown:\n%s", m.View())
	}
}

func TestClipWidth(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abcdef", 0, "abcdef"},
		{"abcdef", 3, "abc"},
		{"██████", 4, "████"},
		{"ab", 10, "ab"},
	}
	for _, tt := range tests {
		if got := clipWidth(tt.in, tt.width); got != tt.want {
			t.Errorf("clipWidth(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
