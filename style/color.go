package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color a non premultiplied sRGB color
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// RGBA implements color.Color
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// IsZero true for the unset, fully transparent black
func (c Color) IsZero() bool {
	return c == Color{}
}

// Opacity returns alpha as 0..1
func (c Color) Opacity() float64 {
	return float64(c.A) / 255
}

// Alpha returns the drawn alpha in 0..1, the color alpha multiplied by a paint
// opacity. Opacity outside ]0, 1[ counts as opaque.
func (c Color) Alpha(opacity float64) float64 {
	a := c.Opacity()
	if opacity > 0 && opacity < 1 {
		a *= opacity
	}
	return a
}

// Hex returns #rrggbb, or #rrggbbaa when not opaque
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// CSS returns the rgb() form used in exported files, opacity is carried separately
func (c Color) CSS() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func (c Color) String() string {
	return c.Hex()
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	pc, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = pc
	return nil
}

// ParseColor reads #rgb, #rrggbb, #rrggbbaa, rgb(r,g,b) and rgba(r,g,b,a) with a in 0..1
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[5:len(s)-1], ",")
		if len(parts) != 4 {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		c, err := parseComponents(parts[:3])
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("invalid alpha in color %q", s)
		}
		c.A = uint8(a*255 + 0.5)
		return c, nil
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		c, err := parseComponents(parts)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return c, nil
	}

	return Color{}, fmt.Errorf("invalid color %q", s)
}

func parseHex(h string) (Color, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return Color{}, fmt.Errorf("invalid hex color #%s", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color #%s: %w", h, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func parseComponents(parts []string) (Color, error) {
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Color{}, err
		}
		rgb[i] = uint8(v)
	}
	return RGB(rgb[0], rgb[1], rgb[2]), nil
}
