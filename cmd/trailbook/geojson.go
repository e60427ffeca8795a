package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/urfave/cli/v3"

	"trailbook/internal/colorparse"
	"trailbook/internal/gps"
)

// documentFeatures maps waypoints to Point features and every track or
// route to a MultiLineString with one line per segment.
func documentFeatures(doc *gps.Document) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for name, wp := range doc.Waypoints.All() {
		ll := wp.Coord.ToLatLon()
		f := geojson.NewFeature(orb.Point{ll.Lon, ll.Lat})
		f.Properties["kind"] = "waypoint"
		f.Properties["name"] = name
		setString(f.Properties, "comment", wp.Comment)
		setString(f.Properties, "description", wp.Description)
		setString(f.Properties, "symbol", wp.Symbol)
		if wp.Altitude != nil {
			f.Properties["altitude"] = *wp.Altitude
		}
		if wp.Timestamp != nil {
			f.Properties["unixtime"] = *wp.Timestamp
		}
		fc.Append(f)
	}

	addTracks := func(kind string, c *gps.Collection[*gps.Track]) {
		for name, trk := range c.All() {
			var mls orb.MultiLineString
			for _, tp := range trk.Points {
				ll := tp.Coord.ToLatLon()
				if len(mls) == 0 || tp.NewSegment {
					mls = append(mls, orb.LineString{})
				}
				mls[len(mls)-1] = append(mls[len(mls)-1], orb.Point{ll.Lon, ll.Lat})
			}
			f := geojson.NewFeature(mls)
			f.Properties["kind"] = kind
			f.Properties["name"] = name
			setString(f.Properties, "comment", trk.Comment)
			setString(f.Properties, "description", trk.Description)
			if trk.Color != nil {
				f.Properties["color"] = colorparse.Hex(*trk.Color)
			}
			if !trk.Visible {
				f.Properties["visible"] = false
			}
			fc.Append(f)
		}
	}
	addTracks("track", &doc.Tracks)
	addTracks("route", &doc.Routes)
	return fc
}

func setString(p geojson.Properties, key, v string) {
	if v != "" {
		p[key] = v
	}
}

func (a *app) geojsonCommand() *cli.Command {
	return &cli.Command{
		Name:      "geojson",
		Usage:     "Convert a track file to a GeoJSON FeatureCollection",
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
			raw, err := documentFeatures(doc).MarshalJSON()
			if err != nil {
				return fmt.Errorf("geojson: %w", err)
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return fmt.Errorf("geojson: %w", err)
			}
			buf.WriteByte('\n')
			_, err = a.stdout.Write(buf.Bytes())
			return err
		},
	}
}
