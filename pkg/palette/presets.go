package palette

import (
	"sort"
	"strings"

	"github.com/matzehuels/textart/pkg/errors"
)

// Preset names.
const (
	Standard = "standard"
	Simple   = "simple"
	Blocks   = "blocks"
	Detailed = "detailed"
	Binary   = "binary"
)

// DefaultName is the preset used when none is requested.
const DefaultName = Standard

const standardRamp = `$@B%8&WM#*oahkbdpqwmZO0QLCJUYXzcvunxrjft/\|()1{}[]?-_+~<>i!lI;:,"^` + "`" + `'. `

var presets = map[string]Palette{
	Standard: MustNew(standardRamp),
	Simple:   MustNew("@%#*+=-:. "),
	Blocks:   MustNew("█▓▒░ "),
	Detailed: MustNew(standardRamp),
	Binary:   MustNew("# "),
}

var descriptions = map[string]string{
	Standard: "70-glyph ASCII ramp",
	Simple:   "10-glyph ASCII ramp",
	Blocks:   "Unicode shade blocks",
	Detailed: "alias of standard",
	Binary:   "two-level threshold",
}

// Default returns the default preset.
func Default() Palette { return presets[DefaultName] }

// Lookup returns the preset with the given name (case-insensitive).
func Lookup(name string) (Palette, error) {
	name = strings.TrimSpace(name)
	if err := errors.ValidatePaletteName(name); err != nil {
		return Palette{}, err
	}
	if p, ok := presets[strings.ToLower(name)]; ok {
		return p, nil
	}
	return Palette{}, errors.New(errors.ErrCodeInvalidPalette, "unknown palette %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names returns the preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a short human description of a preset.
func Describe(name string) string {
	return descriptions[name]
}

// Resolve picks a palette from a preset name or a custom glyph string.
// Custom glyphs win when both are given; an empty name selects the default.
func Resolve(name, custom string) (Palette, error) {
	if custom != "" {
		return New(custom)
	}
	if name == "" {
		return Default(), nil
	}
	return Lookup(name)
}
