package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/textart/pkg/palette"
)

// sampleWidth is the number of cells in the gradient preview column.
const sampleWidth = 24

// paletteRow is one preset as listed by "textart palettes".
type paletteRow struct {
	Name        string `json:"name"`
	Levels      int    `json:"levels"`
	Glyphs      string `json:"glyphs"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

// palettesCommand creates the palettes command.
func (c *CLI) palettesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "palettes",
		Short: "List the built-in glyph palettes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := paletteRows()
			if asJSON {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			fmt.Fprintln(c.stdout, renderPaletteTable(rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")
	return cmd
}

func paletteRows() []paletteRow {
	names := palette.Names()
	rows := make([]paletteRow, 0, len(names))
	for _, name := range names {
		p, err := palette.Lookup(name)
		if err != nil {
			continue
		}
		rows = append(rows, paletteRow{
			Name:        name,
			Levels:      p.Len(),
			Glyphs:      p.String(),
			Description: palette.Describe(name),
			Default:     name == palette.DefaultName,
		})
	}
	return rows
}

// gradientSample quantizes a left-to-right dark to light ramp with p.
func gradientSample(p palette.Palette, width int) string {
	if p.Empty() || width < 1 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < width; i++ {
		s := 0
		if width > 1 {
			s = i * 255 / (width - 1)
		}
		b.WriteRune(p.Glyph(palette.Quantize(uint8(s), p.Len(), false)))
	}
	return b.String()
}

func renderPaletteTable(rows []paletteRow) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		name := r.Name
		if r.Default {
			name += " *"
		}
		p, _ := palette.Lookup(r.Name)
		cells[i] = []string{name, fmt.Sprint(r.Levels), gradientSample(p, sampleWidth), r.Description}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Palette", "Levels", "Sample", "Description").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			switch col {
			case 0:
				if row < len(rows) && rows[row].Default {
					return StyleTitle
				}
				return StyleValue
			case 1:
				return StyleNumber
			case 3:
				return StyleDim
			}
			return lipgloss.NewStyle()
		})

	return t.Render() + "\n" + StyleDim.Render("* default")
}
