package gangsheet

import (
	"fmt"

	"github.com/printnest/backend/internal/domain/shared"
)

// RollSettings is the tenant-scoped roll configuration. Jobs snapshot it
// at creation time, so a settings change never affects in-flight geometry.
// All linear dimensions are in inches.
type RollSettings struct {
	RollWidth     float64 `json:"roll_width"`      // physical roll width
	MaxRollHeight float64 `json:"max_roll_height"` // soft cap before a new roll is opened
	DPI           int     `json:"dpi"`             // rasterization resolution
	Gap           float64 `json:"gap"`             // spacing between placements and roll edges
	Border        bool    `json:"border"`          // draw a solid border around each design
	BorderSize    float64 `json:"border_size"`     // border thickness, folded into packed footprints
	BorderColor   string  `json:"border_color"`    // hex color, e.g. "#FF00AA"
	FooterHeight  float64 `json:"footer_height"`   // band reserved at the bottom of each roll
}

// DefaultRollSettings returns the settings applied to tenants that have
// not configured their own. 22in is the common DTF roll width.
func DefaultRollSettings() RollSettings {
	return RollSettings{
		RollWidth:     22,
		MaxRollHeight: 120,
		DPI:           300,
		Gap:           0.25,
		Border:        false,
		BorderSize:    0.1,
		BorderColor:   "#000000",
		FooterHeight:  2,
	}
}

// Validate checks the settings for internal consistency
func (s RollSettings) Validate() error {
	if s.RollWidth <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Roll width must be positive")
	}
	if s.MaxRollHeight <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Max roll height must be positive")
	}
	if s.DPI < 72 || s.DPI > 1200 {
		return shared.NewDomainError("INVALID_INPUT", "DPI must be between 72 and 1200")
	}
	if s.Gap < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Gap cannot be negative")
	}
	if 2*s.Gap >= s.RollWidth {
		return shared.NewDomainError("INVALID_INPUT", "Gap leaves no usable roll width")
	}
	if s.Border && s.BorderSize <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Border size must be positive when border is enabled")
	}
	if s.Border && !isHexColor(s.BorderColor) {
		return shared.NewDomainError("INVALID_INPUT", "Border color must be a #RRGGBB hex value")
	}
	if s.FooterHeight < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Footer height cannot be negative")
	}
	if s.FooterHeight >= s.MaxRollHeight {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Footer height %.2fin leaves no printable roll height", s.FooterHeight))
	}
	return nil
}

// Footprint returns the packed width and height of an item in the given
// orientation. The border is part of the packed footprint: it is added
// here, before packing, never bolted on after.
func (s RollSettings) Footprint(item LineItem, rotated bool) (w, h float64) {
	w, h = item.PrintWidth, item.PrintHeight
	if rotated {
		w, h = h, w
	}
	if s.Border {
		w += 2 * s.BorderSize
		h += 2 * s.BorderSize
	}
	return w, h
}

// UsableWidth returns the widest footprint that fits on a shelf
func (s RollSettings) UsableWidth() float64 {
	return s.RollWidth - 2*s.Gap
}

// HeightCap returns the printable height of a roll, excluding the footer band
func (s RollSettings) HeightCap() float64 {
	return s.MaxRollHeight - s.FooterHeight
}

// isHexColor reports whether v looks like "#RRGGBB"
func isHexColor(v string) bool {
	if len(v) != 7 || v[0] != '#' {
		return false
	}
	for _, c := range v[1:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
