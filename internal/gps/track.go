package gps

import (
	"image/color"

	"trailbook/internal/coord"
)

// Fix modes stored in FixMode.
const (
	FixNotSeen = iota
	FixNone
	Fix2D
	Fix3D
	FixDGPS
	FixPPS
)

// Trackpoint is one point of a track or route.
//
// Speed, Course, Sats, FixMode and the DOP values are the "extended" fields;
// they are only persisted when at least one of Speed, Course or Sats is set.
type Trackpoint struct {
	Coord      coord.Coord
	Name       string
	Timestamp  *float64
	Altitude   *float64
	NewSegment bool

	Speed   *float64
	Course  *float64
	Sats    uint
	FixMode uint
	HDOP    *float64
	VDOP    *float64
	PDOP    *float64
}

// HasExtended reports whether the point carries motion/quality data worth
// writing.
func (tp *Trackpoint) HasExtended() bool {
	return tp.Speed != nil || tp.Course != nil || tp.Sats > 0
}

// Track is an ordered list of points. A route is a track with IsRoute set.
type Track struct {
	Name    string
	IsRoute bool
	Visible bool

	Comment     string
	Description string
	Source      string
	Type        string
	Number      uint
	Color       *color.RGBA

	// Rendering hints, carried through unchanged.
	DrawNameMode  int
	MaxDistLabels int

	Points []*Trackpoint
}

func NewTrack(isRoute bool) *Track {
	return &Track{IsRoute: isRoute, Visible: true}
}

// Segments counts the recording segments; a track with points always has at
// least one.
func (t *Track) Segments() int {
	if len(t.Points) == 0 {
		return 0
	}
	n := 1
	for _, tp := range t.Points[1:] {
		if tp.NewSegment {
			n++
		}
	}
	return n
}
