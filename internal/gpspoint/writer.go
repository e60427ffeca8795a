package gpspoint

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"trailbook/internal/colorparse"
	"trailbook/internal/coord"
	"trailbook/internal/fileref"
	"trailbook/internal/gps"
)

// Writer serialises a Document. Entities are written in collection order,
// so a document that was read and written back only differs where it was
// edited.
type Writer struct {
	w     *bufio.Writer
	opts  Options
	lower cases.Caser
}

func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{
		w:     bufio.NewWriterSize(w, 64*1024),
		opts:  opts.withDefaults(),
		lower: cases.Lower(language.Und),
	}
}

// WriteAll writes waypoints, then tracks, then routes, and flushes.
func (ww *Writer) WriteAll(doc *gps.Document) error {
	ww.line(`type="waypointlist"`)
	for _, wp := range doc.Waypoints.All() {
		ww.writeWaypoint(wp)
	}
	ww.line(`type="waypointlistend"`)

	for _, trk := range doc.Tracks.All() {
		ww.writeTrack(trk)
	}
	for _, rte := range doc.Routes.All() {
		ww.writeTrack(rte)
	}

	if err := ww.w.Flush(); err != nil {
		return fmt.Errorf("gpspoint: write: %w", err)
	}
	return nil
}

// line writes one record. bufio.Writer keeps the first error, which Flush
// reports.
func (ww *Writer) line(s string) {
	_, _ = ww.w.WriteString(s)
	_ = ww.w.WriteByte('\n')
}

func (ww *Writer) writeWaypoint(wp *gps.Waypoint) {
	if wp == nil || wp.Name == "" {
		return
	}
	var b recordBuilder
	ll := wp.Coord.ToLatLon()
	b.WriteString(`type="waypoint"`)
	b.decimal("latitude", ll.Lat)
	b.decimal("longitude", ll.Lon)
	b.str("name", wp.Name)

	b.optDecimal("altitude", wp.Altitude)
	b.optDecimal("unixtime", wp.Timestamp)
	b.optDecimal("speed", wp.Speed)
	b.optDecimal("course", wp.Course)
	b.optDecimal("magvar", wp.MagVar)
	b.optDecimal("geoidheight", wp.GeoidHeight)
	b.str("comment", wp.Comment)
	b.str("description", wp.Description)
	b.str("source", wp.Source)
	b.str("url", wp.URL)
	b.str("url_name", wp.URLName)
	b.str("xtype", wp.Type)

	b.count("fix", wp.FixMode)
	b.count("sat", wp.Sats)
	b.optDecimal("hdop", wp.HDOP)
	b.optDecimal("vdop", wp.VDOP)
	b.optDecimal("pdop", wp.PDOP)
	b.optDecimal("ageofdgpsdata", wp.AgeOfDGPSData)
	b.count("dgpsid", wp.DGPSID)

	if wp.Image != "" {
		img := wp.Image
		if ww.opts.FileRefFormat == fileref.FormatRelative {
			img = fileref.Relative(ww.opts.BaseDir, img)
		}
		b.str("image", img)
	}
	if present(wp.ImageDirection) {
		b.plain("image_direction", strconv.FormatFloat(*wp.ImageDirection, 'f', 2, 64))
		b.plain("image_direction_ref", strconv.Itoa(int(wp.ImageDirectionRef)))
	}
	// Symbol names are matched lowercase.
	b.str("symbol", ww.lower.String(wp.Symbol))
	b.str("extensions", wp.Extensions)
	if !wp.Visible {
		b.plain("visible", "n")
	}
	ww.line(b.String())
}

func (ww *Writer) writeTrack(trk *gps.Track) {
	if trk == nil || trk.Name == "" {
		return
	}
	kind := "track"
	if trk.IsRoute {
		kind = "route"
	}

	var b recordBuilder
	b.WriteString(`type="` + kind + `"`)
	b.str("name", trk.Name)
	b.str("comment", trk.Comment)
	b.str("description", trk.Description)
	b.str("source", trk.Source)
	b.count("number", trk.Number)
	b.str("xtype", trk.Type)
	if trk.Color != nil {
		b.WriteString(" color=" + colorparse.Hex(*trk.Color))
	}
	b.nonZero("draw_name_mode", trk.DrawNameMode)
	b.nonZero("number_dist_labels", trk.MaxDistLabels)
	if !trk.Visible {
		b.plain("visible", "n")
	}
	ww.line(b.String())

	for _, tp := range trk.Points {
		ww.writeTrackpoint(kind, tp)
	}
	ww.line(`type="` + kind + `end"`)
}

func (ww *Writer) writeTrackpoint(kind string, tp *gps.Trackpoint) {
	if tp == nil {
		return
	}
	var b recordBuilder
	ll := tp.Coord.ToLatLon()
	b.WriteString(`type="` + kind + `point"`)
	b.decimal("latitude", ll.Lat)
	b.decimal("longitude", ll.Lon)
	b.str("name", tp.Name)
	b.optDecimal("altitude", tp.Altitude)
	b.optDecimal("unixtime", tp.Timestamp)
	if tp.NewSegment {
		b.plain("newsegment", "yes")
	}
	if tp.HasExtended() {
		b.plain("extended", "yes")
		b.optDecimal("speed", tp.Speed)
		b.optDecimal("course", tp.Course)
		b.count("sat", tp.Sats)
		b.count("fix", tp.FixMode)
		b.optDecimal("hdop", tp.HDOP)
		b.optDecimal("vdop", tp.VDOP)
		b.optDecimal("pdop", tp.PDOP)
	}
	ww.line(b.String())
}

// recordBuilder appends ` key="value"` fields to a record line, leaving out
// values that are unset.
type recordBuilder struct {
	strings.Builder
}

func (b *recordBuilder) plain(key, v string) {
	b.WriteString(" " + key + `="` + v + `"`)
}

func (b *recordBuilder) str(key, v string) {
	if v != "" {
		b.plain(key, Escape(v))
	}
}

func (b *recordBuilder) decimal(key string, v float64) {
	b.plain(key, coord.FormatDecimal(v))
}

func (b *recordBuilder) optDecimal(key string, v *float64) {
	if present(v) {
		b.decimal(key, *v)
	}
}

func (b *recordBuilder) count(key string, v uint) {
	if v != 0 {
		b.plain(key, strconv.FormatUint(uint64(v), 10))
	}
}

func (b *recordBuilder) nonZero(key string, v int) {
	if v != 0 {
		b.plain(key, strconv.Itoa(v))
	}
}

// present treats NaN and infinities like nil; they cannot be read back.
func present(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Write is shorthand for NewWriter(w, opts).WriteAll(doc).
func Write(w io.Writer, doc *gps.Document, opts Options) error {
	return NewWriter(w, opts).WriteAll(doc)
}
