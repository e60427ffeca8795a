package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"trailbook/internal/gps"
)

type docSummary struct {
	Waypoints int
	Tracks    int
	Routes    int
	Points    int
	Segments  int

	// LengthM sums great-circle distances between consecutive points of
	// every track and route, not counting the jump into a new segment.
	LengthM float64

	Start time.Time
	End   time.Time

	Bound    orb.Bound
	HasBound bool
}

func (s *docSummary) addPosition(p orb.Point) {
	if !s.HasBound {
		s.Bound = orb.Bound{Min: p, Max: p}
		s.HasBound = true
		return
	}
	s.Bound = s.Bound.Extend(p)
}

func (s *docSummary) addTime(ts *float64) {
	if ts == nil || math.IsNaN(*ts) || math.IsInf(*ts, 0) {
		return
	}
	sec, frac := math.Modf(*ts)
	t := time.Unix(int64(sec), int64(frac*1e9)).UTC()
	if s.Start.IsZero() || t.Before(s.Start) {
		s.Start = t
	}
	if s.End.IsZero() || t.After(s.End) {
		s.End = t
	}
}

func (s *docSummary) addTrack(trk *gps.Track) {
	s.Points += len(trk.Points)
	s.Segments += trk.Segments()

	var prev orb.Point
	for i, tp := range trk.Points {
		ll := tp.Coord.ToLatLon()
		p := orb.Point{ll.Lon, ll.Lat}
		s.addPosition(p)
		s.addTime(tp.Timestamp)
		if i > 0 && !tp.NewSegment {
			s.LengthM += geo.DistanceHaversine(prev, p)
		}
		prev = p
	}
}

func summarizeDocument(doc *gps.Document) docSummary {
	var s docSummary
	for _, wp := range doc.Waypoints.All() {
		s.Waypoints++
		ll := wp.Coord.ToLatLon()
		s.addPosition(orb.Point{ll.Lon, ll.Lat})
		s.addTime(wp.Timestamp)
	}
	for _, trk := range doc.Tracks.All() {
		s.Tracks++
		s.addTrack(trk)
	}
	for _, rte := range doc.Routes.All() {
		s.Routes++
		s.addTrack(rte)
	}
	return s
}

// printSummary writes one "key: value" line per figure. On a terminal the
// values are aligned.
func printSummary(w io.Writer, path string, s docSummary, aligned bool) error {
	rows := [][2]string{
		{"path", path},
		{"waypoints", fmt.Sprint(s.Waypoints)},
		{"tracks", fmt.Sprint(s.Tracks)},
		{"routes", fmt.Sprint(s.Routes)},
		{"points", fmt.Sprint(s.Points)},
		{"segments", fmt.Sprint(s.Segments)},
		{"length_km", fmt.Sprintf("%.3f", s.LengthM/1000)},
	}
	if !s.Start.IsZero() {
		rows = append(rows,
			[2]string{"start", s.Start.Format(time.RFC3339)},
			[2]string{"end", s.End.Format(time.RFC3339)},
			[2]string{"duration", s.End.Sub(s.Start).String()},
		)
	}
	if s.HasBound {
		rows = append(rows, [2]string{"bounds", fmt.Sprintf("%.6f,%.6f %.6f,%.6f",
			s.Bound.Min.Lat(), s.Bound.Min.Lon(), s.Bound.Max.Lat(), s.Bound.Max.Lon())})
	}

	sep := " "
	out := w
	var tw *tabwriter.Writer
	if aligned {
		tw = tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
		out, sep = tw, "\t"
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(out, "%s:%s%s\n", r[0], sep, r[1]); err != nil {
			return err
		}
	}
	if tw != nil {
		return tw.Flush()
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Print counts, length, time span and bounds of a track file",
		ArgsUsage: "<file>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "<file>")
			if err != nil {
				return err
			}
			doc, err := a.readDocument(path)
			if err != nil {
				return err
			}
			return printSummary(a.stdout, path, summarizeDocument(doc), isTerminal(a.stdout))
		},
	}
}
