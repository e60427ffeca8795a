package gps

import "trailbook/internal/coord"

// ImageDirectionRef is the reference frame of a waypoint's image bearing.
type ImageDirectionRef int

const (
	ImageDirectionTrue     ImageDirectionRef = 0
	ImageDirectionMagnetic ImageDirectionRef = 1
)

// Waypoint is a single named point of interest.
//
// Optional measurements are nil when unavailable. FixMode, Sats and DGPSID
// use zero for "unavailable".
type Waypoint struct {
	Coord   coord.Coord
	Name    string
	Visible bool

	Comment     string
	Description string
	Source      string
	URL         string
	URLName     string
	Type        string
	Symbol      string
	Image       string
	Extensions  string

	ImageDirection    *float64
	ImageDirectionRef ImageDirectionRef

	Timestamp   *float64 // seconds since the Unix epoch
	Altitude    *float64
	Speed       *float64
	Course      *float64
	MagVar      *float64
	GeoidHeight *float64

	FixMode       uint
	Sats          uint
	HDOP          *float64
	VDOP          *float64
	PDOP          *float64
	AgeOfDGPSData *float64
	DGPSID        uint
}

// NewWaypoint returns a visible waypoint with every optional field unset.
func NewWaypoint() *Waypoint {
	return &Waypoint{Visible: true}
}

// Float returns a pointer to v, for populating optional fields.
func Float(v float64) *float64 {
	return &v
}
