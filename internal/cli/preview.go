package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"

	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/grayscale"
	"github.com/matzehuels/textart/pkg/palette"
	"github.com/matzehuels/textart/pkg/pipeline"
	"github.com/matzehuels/textart/pkg/textart"
)

// widthStep is how many columns +/- add or remove.
const widthStep = 4

var previewErrorStyle = lipgloss.NewStyle().Foreground(colorRed)

// artSource produces art for the preview. *pipeline.Runner satisfies it.
type artSource interface {
	GenerateWithCacheInfo(ctx context.Context, imageData []byte, opts pipeline.Options) (*textart.TextArt, bool, error)
}

// artMsg carries the result of one generation back to the model.
type artMsg struct {
	seq    int
	art    *textart.TextArt
	cached bool
	err    error
}

// =============================================================================
// PreviewModel - Interactive text art preview
// =============================================================================

// PreviewModel is the bubbletea model behind "textart preview". Every option
// change starts a new generation; results from older ones are dropped.
type PreviewModel struct {
	ctx    context.Context
	source artSource
	data   []byte
	name   string

	base     pipeline.Options // never validated, copied for each run
	width    int
	invert   bool
	palettes []string
	current  int // index into palettes, -1 for custom glyphs

	seq     int
	loading bool
	art     *textart.TextArt
	cached  bool
	err     error

	termWidth  int
	termHeight int
}

// NewPreviewModel creates a preview for one image. base must already have
// passed validation on a copy.
func NewPreviewModel(ctx context.Context, source artSource, data []byte, name string, base pipeline.Options) PreviewModel {
	resolved := base
	_ = resolved.ValidateAndSetDefaults()

	m := PreviewModel{
		ctx:      ctx,
		source:   source,
		data:     data,
		name:     name,
		base:     base,
		width:    resolved.Width,
		invert:   resolved.Invert,
		palettes: palette.Names(),
		current:  -1,
		loading:  true,
	}
	if base.CustomPalette == "" {
		label := resolved.PaletteLabel()
		for i, n := range m.palettes {
			if n == label {
				m.current = i
			}
		}
	}
	return m
}

// options builds the pipeline options for the current settings.
func (m PreviewModel) options() pipeline.Options {
	o := m.base
	o.Width = m.width
	o.Invert = m.invert
	o.Formats = nil
	if m.current >= 0 {
		o.Palette = m.palettes[m.current]
		o.CustomPalette = ""
	}
	return o
}

// generate returns a command that converts the image with the current settings.
func (m PreviewModel) generate() tea.Cmd {
	seq, opts := m.seq, m.options()
	return func() tea.Msg {
		art, cached, err := m.source.GenerateWithCacheInfo(m.ctx, m.data, opts)
		return artMsg{seq: seq, art: art, cached: cached, err: err}
	}
}

// refresh marks the current art stale and schedules a new generation.
func (m PreviewModel) refresh() (tea.Model, tea.Cmd) {
	m.seq++
	m.loading = true
	return m, m.generate()
}

func (m PreviewModel) maxWidth() int {
	if m.base.MaxDimension > 0 {
		return m.base.MaxDimension
	}
	return grayscale.DefaultMaxDimension
}

func (m PreviewModel) Init() tea.Cmd {
	return m.generate()
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "+", "=":
			if m.width+widthStep > m.maxWidth() {
				return m, nil
			}
			m.width += widthStep
			return m.refresh()
		case "-", "_":
			if m.width-widthStep < 1 {
				return m, nil
			}
			m.width -= widthStep
			return m.refresh()
		case "f":
			if m.termWidth < 1 || m.termWidth == m.width {
				return m, nil
			}
			m.width = min(m.termWidth, m.maxWidth())
			return m.refresh()
		case "i":
			m.invert = !m.invert
			return m.refresh()
		case "p":
			m.current = (m.current + 1) % len(m.palettes)
			return m.refresh()
		case "P":
			if m.current <= 0 {
				m.current = len(m.palettes)
			}
			m.current--
			return m.refresh()
		}
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
	case artMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		m.art, m.cached, m.err = msg.art, msg.cached, msg.err
	}
	return m, nil
}

func (m PreviewModel) paletteLabel() string {
	if m.current < 0 {
		return pipeline.CustomPaletteLabel
	}
	return m.palettes[m.current]
}

func (m PreviewModel) View() string {
	var b strings.Builder

	invert := "off"
	if m.invert {
		invert = "on"
	}
	status := fmt.Sprintf("width %d · %s · invert %s", m.width, m.paletteLabel(), invert)
	switch {
	case m.loading:
		status += " · converting"
	case m.cached:
		status += " · " + styleCached.Render(iconCached)
	}

	b.WriteString(StyleTitle.Render(m.name))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(status))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(previewErrorStyle.Render(iconError + " " + errors.UserMessage(m.err)))
		b.WriteString("\n")
	case m.art != nil:
		rows := m.art.Rows()
		if limit := m.termHeight - 4; m.termHeight > 0 && len(rows) > limit {
			rows = rows[:max(limit, 0)]
		}
		for _, row := range rows {
			b.WriteString(clipWidth(row, m.termWidth))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("+/- width  f fit  i invert  p/P palette  q quit"))
	return b.String()
}

// clipWidth truncates s to at most width terminal cells. Zero means no limit.
func clipWidth(s string, width int) string {
	if width <= 0 || uniseg.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width {
			break
		}
		used += w
		b.WriteString(g.Str())
	}
	return b.String()
}

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		opts    optionFlags
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Preview text art interactively",
		Long: `Show an image as text art in the terminal and adjust it live.

Keys: +/- change the width, f fits the terminal, i inverts, p/P cycle
palettes, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.Config.pipelineOptions()
			opts.applyTo(&base, cmd.Flags().Changed)

			check := base
			if err := check.ValidateAndSetDefaults(); err != nil {
				return err
			}

			data, err := readImage(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			// The TUI owns the terminal; keep log lines out of it.
			level := c.Logger.GetLevel()
			c.SetLogLevel(LogError)
			defer c.SetLogLevel(level)

			ctx := cmd.Context()
			m := NewPreviewModel(ctx, runner, data, args[0], base)
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			return nil
		},
	}

	addOptionFlags(cmd, &opts)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
