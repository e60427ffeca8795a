// Package coord holds the coordinate representations used by track documents
// and the conversions between them.
package coord

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mode selects how a Coord stores its position.
type Mode int

const (
	ModeLatLon Mode = iota
	ModeUTM
)

func (m Mode) String() string {
	switch m {
	case ModeLatLon:
		return "latlon"
	case ModeUTM:
		return "utm"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "latlon" or "utm" (case-insensitive). Empty means latlon.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latlon":
		return ModeLatLon, nil
	case "utm":
		return ModeUTM, nil
	default:
		return 0, fmt.Errorf("unknown coordinate mode %q", s)
	}
}

type LatLon struct {
	Lat float64
	Lon float64
}

type UTM struct {
	Northing float64
	Easting  float64
	Zone     int
	Letter   byte
}

// Coord is a position in one of the supported representations.
// Only the field matching Mode is meaningful.
type Coord struct {
	Mode   Mode
	LatLon LatLon
	UTM    UTM
}

// FromLatLon converts ll into the representation selected by mode. A
// non-finite position has no UTM projection and yields the zero UTM value.
func FromLatLon(mode Mode, ll LatLon) Coord {
	if mode == ModeUTM {
		if !finite(ll.Lat) || !finite(ll.Lon) {
			return Coord{Mode: ModeUTM}
		}
		return Coord{Mode: ModeUTM, UTM: LatLonToUTM(ll)}
	}
	return Coord{Mode: ModeLatLon, LatLon: ll}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ToLatLon returns the position as decimal degrees.
func (c Coord) ToLatLon() LatLon {
	if c.Mode == ModeUTM {
		return UTMToLatLon(c.UTM)
	}
	return c.LatLon
}

// FormatDecimal renders d without locale and without exponent notation.
// The shortest representation that parses back to d is used, padded to at
// least six fractional digits (48.858222, 2.294500, 100.000000).
func FormatDecimal(d float64) string {
	s := strconv.FormatFloat(d, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s + ".000000"
	}
	if n := len(s) - dot - 1; n < 6 {
		s += strings.Repeat("0", 6-n)
	}
	return s
}
