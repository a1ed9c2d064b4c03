package render

import (
	"fmt"
	"image/color"
	"strconv"
)

// ParseHexColor converts "#RRGGBB" into an opaque NRGBA color
func ParseHexColor(v string) (color.NRGBA, error) {
	if len(v) != 7 || v[0] != '#' {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", v)
	}
	r, err := strconv.ParseUint(v[1:3], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", v)
	}
	g, err := strconv.ParseUint(v[3:5], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", v)
	}
	b, err := strconv.ParseUint(v[5:7], 16, 8)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", v)
	}
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}, nil
}
