// Package gpspoint reads and writes the line-oriented track file format.
//
// Each line is one record made of key="value" tokens. A record's type field
// says what it is; tracks and routes open with a "track"/"route" record,
// collect "trackpoint"/"routepoint" records and close with "trackend" /
// "routeend":
//
//	type="waypointlist"
//	type="waypoint" latitude="48.858222" longitude="2.294500" name="Eiffel Tower"
//	type="waypointlistend"
//	type="track" name="Morning run"
//	type="trackpoint" latitude="48.1" longitude="2.1" unixtime="1700000000.000000"
//	type="trackend"
//
// Reading never fails on malformed content: bad fields and records are
// dropped and the rest of the file is salvaged.
package gpspoint

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"

	"trailbook/internal/colorparse"
	"trailbook/internal/coord"
	"trailbook/internal/fileref"
	"trailbook/internal/gps"
)

// DefaultMaxLineBytes bounds a single line. Longer lines are truncated.
const DefaultMaxLineBytes = 4096

// endLayerMarker ends the embedded block when the format is wrapped inside a
// larger document.
var endLayerMarker = []byte("~EndLayerData")

// Options configures a Reader or Writer.
type Options struct {
	// CoordMode is the representation points are stored in after reading.
	CoordMode coord.Mode

	// BaseDir is the directory of the file; relative image references are
	// resolved against it, and written relative to it in FormatRelative.
	BaseDir       string
	FileRefFormat fileref.Format

	// MaxLineBytes defaults to DefaultMaxLineBytes.
	MaxLineBytes int

	// ParseColor defaults to colorparse.Parse.
	ParseColor func(string) (color.RGBA, error)

	// Logger receives debug messages about dropped content. Nil discards.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxLineBytes <= 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}
	if o.ParseColor == nil {
		o.ParseColor = colorparse.Parse
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Reader assembles a Document from a stream of lines. A Reader is used for
// a single pass and must not be shared between goroutines.
type Reader struct {
	r    io.Reader
	opts Options
	log  *slog.Logger

	doc     *gps.Document
	current *gps.Track
	fields  lineFields
	lineNo  int
	found   bool
}

func NewReader(r io.Reader, opts Options) *Reader {
	opts = opts.withDefaults()
	return &Reader{r: r, opts: opts, log: opts.Logger}
}

// ReadAll reads until EOF or the embedded-block terminator.
//
// ok reports whether anything recognisable was read. The format has no
// signature, so callers use it to decide whether the input was a track file
// at all. err is only set for failures of the underlying reader; the records
// assembled before the failure are still returned.
func (rr *Reader) ReadAll() (doc *gps.Document, ok bool, err error) {
	rr.doc = gps.NewDocument()
	rr.current = nil
	rr.found = false
	rr.lineNo = 0

	br := bufio.NewReaderSize(rr.r, rr.opts.MaxLineBytes)
	for {
		line, rerr := br.ReadSlice('\n')
		if errors.Is(rerr, bufio.ErrBufferFull) {
			kept := append([]byte(nil), line...)
			for errors.Is(rerr, bufio.ErrBufferFull) {
				_, rerr = br.ReadSlice('\n')
			}
			rr.log.Debug("gpspoint: line truncated", "line", rr.lineNo+1, "max_bytes", rr.opts.MaxLineBytes)
			line = kept
		}
		if len(line) > 0 {
			rr.lineNo++
			line = bytes.TrimRight(line, "\r\n")
			if bytes.HasPrefix(line, endLayerMarker) {
				// An empty embedded block is still a valid one.
				rr.found = true
				break
			}
			rr.processLine(line)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			rr.closeCurrent()
			return rr.doc, rr.found, fmt.Errorf("gpspoint: read line %d: %w", rr.lineNo+1, rerr)
		}
	}

	// Tolerate a missing end marker on the last track.
	rr.closeCurrent()
	return rr.doc, rr.found, nil
}

func (rr *Reader) processLine(line []byte) {
	rr.fields.reset()
	tz := newTokenizer(line)
	for sp, more := tz.next(); more; sp, more = tz.next() {
		key, value, ok := splitTag(tz.bytes(sp))
		if !ok {
			rr.log.Debug("gpspoint: malformed field dropped", "line", rr.lineNo, "token", string(tz.bytes(sp)))
			continue
		}
		rr.fields.set(key, value)
	}
	rr.assemble()
	rr.fields.reset()
}

func (rr *Reader) assemble() {
	f := &rr.fields
	switch f.typ {
	case typeTrackEnd, typeRouteEnd:
		rr.closeCurrent()

	case typeWaypoint:
		if f.name == "" {
			rr.log.Debug("gpspoint: waypoint without name dropped", "line", rr.lineNo)
			return
		}
		rr.closeCurrent()
		rr.doc.Waypoints.Set(f.name, rr.buildWaypoint())
		rr.found = true

	case typeTrack, typeRoute:
		if f.name == "" {
			rr.log.Debug("gpspoint: "+f.typ.String()+" without name dropped", "line", rr.lineNo)
			return
		}
		rr.closeCurrent()
		trk := rr.buildTrack(f.typ == typeRoute)
		rr.doc.AddTrack(trk)
		rr.current = trk
		rr.found = true

	case typeTrackpoint, typeRoutepoint:
		if rr.current == nil {
			rr.log.Debug("gpspoint: "+f.typ.String()+" outside of a track dropped", "line", rr.lineNo)
			return
		}
		rr.current.Points = append(rr.current.Points, rr.buildTrackpoint())
		rr.found = true
	}
}

// closeCurrent ends the open track or route. Points are appended in file
// order, so nothing needs reordering.
func (rr *Reader) closeCurrent() {
	rr.current = nil
}

func (rr *Reader) latLon() coord.Coord {
	return coord.FromLatLon(rr.opts.CoordMode, coord.LatLon{Lat: rr.fields.lat, Lon: rr.fields.lon})
}

func (rr *Reader) buildWaypoint() *gps.Waypoint {
	f := &rr.fields
	wp := gps.NewWaypoint()
	wp.Name = f.name
	wp.Coord = rr.latLon()
	wp.Visible = f.visible
	wp.Altitude = f.altitude
	wp.Timestamp = f.timestamp
	wp.Speed = f.speed
	wp.Course = f.course
	wp.MagVar = f.magVar
	wp.GeoidHeight = f.geoidHeight
	wp.Sats = f.sats
	wp.FixMode = f.fixMode
	wp.HDOP = f.hdop
	wp.VDOP = f.vdop
	wp.PDOP = f.pdop
	wp.AgeOfDGPSData = f.ageOfDGPSData
	wp.DGPSID = f.dgpsID

	wp.Comment = f.comment
	wp.Description = f.description
	wp.Source = f.source
	wp.URL = f.url
	wp.URLName = f.urlName
	wp.Type = f.xtype
	if f.image != "" {
		wp.Image = f.image
		if abs := fileref.Absolute(f.image, rr.opts.BaseDir); abs != "" {
			wp.Image = abs
		}
	}
	if f.imageDirection != nil {
		wp.ImageDirection = f.imageDirection
		wp.ImageDirectionRef = gps.ImageDirectionRef(f.imageDirectionRef)
	}
	wp.Symbol = f.symbol
	wp.Extensions = f.extensions
	return wp
}

func (rr *Reader) buildTrack(isRoute bool) *gps.Track {
	f := &rr.fields
	trk := gps.NewTrack(isRoute)
	trk.Name = f.name
	if trk.Name == "" {
		trk.Name = "UNK"
	}
	trk.Visible = f.visible
	trk.Comment = f.comment
	trk.Description = f.description
	trk.Source = f.source
	trk.Number = f.number
	trk.Type = f.xtype
	if f.color != "" {
		c, err := rr.opts.ParseColor(f.color)
		if err != nil {
			rr.log.Debug("gpspoint: unparseable colour ignored", "line", rr.lineNo, "color", f.color, "err", err)
		} else {
			trk.Color = &c
		}
	}
	trk.DrawNameMode = f.nameLabel
	trk.MaxDistLabels = f.distLabels
	return trk
}

func (rr *Reader) buildTrackpoint() *gps.Trackpoint {
	f := &rr.fields
	tp := &gps.Trackpoint{
		Coord:      rr.latLon(),
		Name:       f.name,
		NewSegment: f.newSegment,
		Timestamp:  f.timestamp,
		Altitude:   f.altitude,
	}
	// Without the marker the motion/quality fields are not trusted, even if
	// some of them appear on the line.
	if f.extended {
		tp.Speed = f.speed
		tp.Course = f.course
		tp.Sats = f.sats
		tp.FixMode = f.fixMode
		tp.HDOP = f.hdop
		tp.VDOP = f.vdop
		tp.PDOP = f.pdop
	}
	return tp
}

// Read is shorthand for NewReader(r, opts).ReadAll().
func Read(r io.Reader, opts Options) (*gps.Document, bool, error) {
	return NewReader(r, opts).ReadAll()
}
