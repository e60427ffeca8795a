// Package colorparse turns textual colour specifications into RGBA values.
//
// Accepted forms are hex triplets with 1 to 4 digits per channel (#f00,
// #ff0000, #fff000000, #ffff00000000) and CSS/SVG colour names.
package colorparse

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Parse returns the colour described by s.
func Parse(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("colorparse: empty colour")
	}
	if s[0] == '#' {
		return parseHex(s[1:])
	}
	name := strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("colorparse: unknown colour %q", s)
}

func parseHex(h string) (color.RGBA, error) {
	if len(h) == 0 || len(h)%3 != 0 || len(h) > 12 {
		return color.RGBA{}, fmt.Errorf("colorparse: bad hex colour %q", "#"+h)
	}
	n := len(h) / 3
	var ch [3]uint8
	for i := range ch {
		v, err := strconv.ParseUint(h[i*n:(i+1)*n], 16, 16)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("colorparse: bad hex colour %q", "#"+h)
		}
		ch[i] = scaleTo8(v, n)
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xff}, nil
}

// scaleTo8 maps an n-digit hex channel onto 0..255.
func scaleTo8(v uint64, digits int) uint8 {
	switch digits {
	case 1:
		return uint8(v<<4 | v)
	case 2:
		return uint8(v)
	default:
		return uint8(v >> (4 * uint(digits-2)))
	}
}

// Hex formats c as #rrggbb, ignoring alpha.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
