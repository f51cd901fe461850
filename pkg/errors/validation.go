package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxCharsLength bounds custom palette strings accepted from users.
const MaxCharsLength = 256

// ValidateTargetWidth checks that a requested column count is usable.
// A maxDimension of zero or less disables the upper bound.
func ValidateTargetWidth(width, maxDimension int) error {
	if width < 1 {
		return New(ErrCodeInvalidOption, "width must be at least 1, got %d", width)
	}
	if maxDimension > 0 && width > maxDimension {
		return New(ErrCodeImageTooLarge, "width %d exceeds max dimension %d", width, maxDimension)
	}
	return nil
}

// ValidateAspectCorrection checks that the glyph aspect factor is positive and finite.
func ValidateAspectCorrection(aspect float64) error {
	if math.IsNaN(aspect) || math.IsInf(aspect, 0) || aspect <= 0 {
		return New(ErrCodeInvalidOption, "aspect correction must be a positive finite number, got %v", aspect)
	}
	return nil
}

// ValidateMaxDimension checks a configured dimension cap. Zero means "use the default".
func ValidateMaxDimension(maxDimension int) error {
	if maxDimension < 0 {
		return New(ErrCodeInvalidOption, "max dimension cannot be negative, got %d", maxDimension)
	}
	return nil
}

// ValidateChars validates a user supplied palette string before it is segmented.
//
// The validation rules are intentionally conservative:
//   - No empty strings
//   - No control characters (newlines and tabs would break row alignment)
//   - Maximum length of [MaxCharsLength] bytes
//
// Glyph width checks are done by the palette package.
func ValidateChars(chars string) error {
	if chars == "" {
		return New(ErrCodeInvalidPalette, "palette cannot be empty")
	}
	if len(chars) > MaxCharsLength {
		return New(ErrCodeInvalidPalette, "palette too long (max %d bytes)", MaxCharsLength)
	}
	if strings.IndexFunc(chars, unicode.IsControl) >= 0 {
		return New(ErrCodeInvalidPalette, "palette contains control characters")
	}
	return nil
}

// MaxPaletteNameLength bounds preset names accepted from query strings and flags.
const MaxPaletteNameLength = 32

// ValidatePaletteName checks that a preset name is well formed. It does not
// check that the preset exists.
func ValidatePaletteName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPalette, "palette name cannot be empty")
	}
	if len(name) > MaxPaletteNameLength {
		return New(ErrCodeInvalidPalette, "palette name too long (max %d bytes)", MaxPaletteNameLength)
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return New(ErrCodeInvalidPalette, "palette name %q contains invalid character %q", name, r)
		}
	}
	return nil
}
