package gpspoint

import (
	"errors"
	"image/color"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/internal/coord"
	"trailbook/internal/gps"
)

func readString(t *testing.T, in string, opts Options) (*gps.Document, bool) {
	t.Helper()
	doc, ok, err := NewReader(strings.NewReader(in), opts).ReadAll()
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc, ok
}

func TestReadAll_EiffelTower(t *testing.T) {
	in := `type="waypoint" latitude="48.858222" longitude="2.294500" name="Eiffel Tower" comment="Paris, \"France\""` + "\n"
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)

	wp, found := doc.Waypoints.Get("Eiffel Tower")
	require.True(t, found)
	assert.Equal(t, `Paris, "France"`, wp.Comment)
	ll := wp.Coord.ToLatLon()
	assert.Equal(t, 48.858222, ll.Lat)
	assert.Equal(t, 2.2945, ll.Lon)
	assert.True(t, wp.Visible)
	assert.Nil(t, wp.Altitude)
}

func TestReadAll_TrackWithPoints(t *testing.T) {
	in := `
# exported track
type="track" name="Run" comment="morning" number="3" xtype="running" color=#ff8000 draw_name_mode="2" number_dist_labels="5"
type="trackpoint" latitude="1.0" longitude="2.0" altitude="10.5" unixtime="1700000000"
type="trackpoint" latitude="1.1" longitude="2.1" newsegment="yes" name="gap"
type="trackpoint" latitude="1.2" longitude="2.2"
type="trackend"
`
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)
	require.Equal(t, 1, doc.Tracks.Len())
	assert.Equal(t, 0, doc.Routes.Len())

	trk, found := doc.Tracks.Get("Run")
	require.True(t, found)
	assert.False(t, trk.IsRoute)
	assert.Equal(t, "morning", trk.Comment)
	assert.EqualValues(t, 3, trk.Number)
	assert.Equal(t, "running", trk.Type)
	require.NotNil(t, trk.Color)
	assert.Equal(t, color.RGBA{0xff, 0x80, 0x00, 0xff}, *trk.Color)
	assert.Equal(t, 2, trk.DrawNameMode)
	assert.Equal(t, 5, trk.MaxDistLabels)

	require.Len(t, trk.Points, 3)
	assert.Equal(t, 1.0, trk.Points[0].Coord.ToLatLon().Lat)
	assert.Equal(t, 1.1, trk.Points[1].Coord.ToLatLon().Lat)
	assert.Equal(t, 1.2, trk.Points[2].Coord.ToLatLon().Lat)
	require.NotNil(t, trk.Points[0].Altitude)
	assert.Equal(t, 10.5, *trk.Points[0].Altitude)
	require.NotNil(t, trk.Points[0].Timestamp)
	assert.Equal(t, 1700000000.0, *trk.Points[0].Timestamp)
	assert.True(t, trk.Points[1].NewSegment)
	assert.Equal(t, "gap", trk.Points[1].Name)
	assert.Equal(t, 2, trk.Segments())
}

func TestReadAll_Route(t *testing.T) {
	in := `type="route" name="Plan"
type="routepoint" latitude="5" longitude="6"
type="routepoint" latitude="7" longitude="8"
type="routeend"
`
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)
	assert.Equal(t, 0, doc.Tracks.Len())
	rte, found := doc.Routes.Get("Plan")
	require.True(t, found)
	assert.True(t, rte.IsRoute)
	assert.Len(t, rte.Points, 2)
}

func TestReadAll_OrphanPointDropped(t *testing.T) {
	in := `type="trackpoint" latitude="9" longitude="9"
type="track" name="T"
type="trackpoint" latitude="3" longitude="4"
type="trackend"
type="trackpoint" latitude="8" longitude="8"
`
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)
	trk, found := doc.Tracks.Get("T")
	require.True(t, found)
	require.Len(t, trk.Points, 1)
	assert.Equal(t, coord.LatLon{Lat: 3, Lon: 4}, trk.Points[0].Coord.ToLatLon())
}

func TestReadAll_OnlyOrphansReadsNothing(t *testing.T) {
	_, ok := readString(t, `type="trackpoint" latitude="9" longitude="9"`+"\n", Options{})
	assert.False(t, ok)
}

func TestReadAll_DefensiveClose(t *testing.T) {
	in := `type="track" name="T"
type="trackpoint" latitude="1" longitude="1"
type="track" name="U"
type="trackpoint" latitude="2" longitude="2"
type="trackpoint" latitude="3" longitude="3"
type="waypoint" name="W" latitude="4" longitude="4"
type="trackpoint" latitude="5" longitude="5"
`
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)
	assert.Equal(t, []string{"T", "U"}, doc.Tracks.Names())

	tTrack, _ := doc.Tracks.Get("T")
	uTrack, _ := doc.Tracks.Get("U")
	assert.Len(t, tTrack.Points, 1)
	assert.Len(t, uTrack.Points, 2)

	_, found := doc.Waypoints.Get("W")
	assert.True(t, found)
}

func TestReadAll_MissingFinalEnd(t *testing.T) {
	in := `type="track" name="T"
type="trackpoint" latitude="1" longitude="1"
type="trackpoint" latitude="2" longitude="2"`
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)
	trk, _ := doc.Tracks.Get("T")
	require.Len(t, trk.Points, 2)
	assert.Equal(t, 1.0, trk.Points[0].Coord.ToLatLon().Lat)
}

func TestReadAll_NamelessRecordsDropped(t *testing.T) {
	in := `type="waypoint" latitude="1" longitude="1"
type="waypoint" latitude="1" longitude="1" name=""
type="track"
type="trackpoint" latitude="1" longitude="1"
`
	doc, ok := readString(t, in, Options{})
	assert.False(t, ok)
	assert.True(t, doc.Empty())
}

func TestReadAll_NothingRecognised(t *testing.T) {
	in := "hello world\nthis is not a track file\n<gpx></gpx>\n"
	doc, ok := readString(t, in, Options{})
	assert.False(t, ok)
	assert.True(t, doc.Empty())

	_, ok = readString(t, "", Options{})
	assert.False(t, ok)
}

func TestReadAll_EndLayerMarker(t *testing.T) {
	doc, ok := readString(t, "~EndLayerData\n", Options{})
	assert.True(t, ok)
	assert.True(t, doc.Empty())

	in := `type="track" name="T"
type="trackpoint" latitude="1" longitude="1"
~EndLayerData
type="waypoint" name="after" latitude="1" longitude="1"
`
	doc, ok = readString(t, in, Options{})
	assert.True(t, ok)
	assert.Equal(t, 0, doc.Waypoints.Len())
	trk, _ := doc.Tracks.Get("T")
	assert.Len(t, trk.Points, 1)
}

func TestReadAll_ExtendedGate(t *testing.T) {
	in := `type="track" name="T"
type="trackpoint" latitude="1" longitude="1" speed="3.5" course="90" sat="7" fix="3" hdop="1.2"
type="trackpoint" latitude="1" longitude="1" extended="yes" speed="3.5" course="90" sat="7" fix="3" hdop="1.2" vdop="1.5" pdop="2.0"
type="trackend"
`
	doc, _ := readString(t, in, Options{})
	trk, _ := doc.Tracks.Get("T")
	require.Len(t, trk.Points, 2)

	plain := trk.Points[0]
	assert.Nil(t, plain.Speed)
	assert.Nil(t, plain.Course)
	assert.Nil(t, plain.HDOP)
	assert.EqualValues(t, 0, plain.Sats)
	assert.EqualValues(t, 0, plain.FixMode)

	ext := trk.Points[1]
	require.NotNil(t, ext.Speed)
	assert.Equal(t, 3.5, *ext.Speed)
	require.NotNil(t, ext.Course)
	assert.Equal(t, 90.0, *ext.Course)
	assert.EqualValues(t, 7, ext.Sats)
	assert.EqualValues(t, 3, ext.FixMode)
	assert.Equal(t, 1.2, *ext.HDOP)
	assert.Equal(t, 1.5, *ext.VDOP)
	assert.Equal(t, 2.0, *ext.PDOP)
}

func TestReadAll_FieldsDoNotLeak(t *testing.T) {
	in := `type="waypoint" name="A" latitude="1" longitude="2" comment="only A" altitude="100" visible="n" symbol="flag"
type="waypoint" name="B"
`
	doc, _ := readString(t, in, Options{})
	a, _ := doc.Waypoints.Get("A")
	b, _ := doc.Waypoints.Get("B")
	assert.Equal(t, "only A", a.Comment)
	assert.False(t, a.Visible)
	assert.Equal(t, "", b.Comment)
	assert.Nil(t, b.Altitude)
	assert.True(t, b.Visible)
	assert.Equal(t, "", b.Symbol)
	assert.Equal(t, coord.LatLon{}, b.Coord.ToLatLon())
}

func TestReadAll_MalformedFieldsSalvaged(t *testing.T) {
	in := `type="waypoint" bogus comment= latitude="1.5" altitude="abc" name="W" description="unterminated` + "\n"
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)
	wp, found := doc.Waypoints.Get("W")
	require.True(t, found)
	assert.Equal(t, 1.5, wp.Coord.ToLatLon().Lat)
	assert.Nil(t, wp.Altitude)
	assert.Equal(t, "", wp.Comment)
	assert.Equal(t, "", wp.Description)
}

func TestReadAll_CaseInsensitiveKeys(t *testing.T) {
	in := `TYPE="WayPoint" NAME="x" Latitude="3" LONGITUDE="4" Comment="c"` + "\n"
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)
	wp, found := doc.Waypoints.Get("x")
	require.True(t, found)
	assert.Equal(t, coord.LatLon{Lat: 3, Lon: 4}, wp.Coord.ToLatLon())
	assert.Equal(t, "c", wp.Comment)
}

func TestReadAll_WaypointFields(t *testing.T) {
	in := `type="waypoint" latitude="1" longitude="2" name="W" altitude="3" unixtime="4.5" speed="5" course="6" magvar="7" geoidheight="8" ` +
		`comment="c" description="d" source="s" url="http://x" url_name="X" xtype="t" fix="3" sat="9" hdop="1" vdop="2" pdop="3" ` +
		`ageofdgpsdata="4" dgpsid="12" image="/img/a.jpg" image_direction="45.25" image_direction_ref="1" symbol="flag, blue" extensions="<x/>"` + "\n"
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)
	wp, _ := doc.Waypoints.Get("W")

	assert.Equal(t, 3.0, *wp.Altitude)
	assert.Equal(t, 4.5, *wp.Timestamp)
	assert.Equal(t, 5.0, *wp.Speed)
	assert.Equal(t, 6.0, *wp.Course)
	assert.Equal(t, 7.0, *wp.MagVar)
	assert.Equal(t, 8.0, *wp.GeoidHeight)
	assert.Equal(t, "c", wp.Comment)
	assert.Equal(t, "d", wp.Description)
	assert.Equal(t, "s", wp.Source)
	assert.Equal(t, "http://x", wp.URL)
	assert.Equal(t, "X", wp.URLName)
	assert.Equal(t, "t", wp.Type)
	assert.EqualValues(t, 3, wp.FixMode)
	assert.EqualValues(t, 9, wp.Sats)
	assert.Equal(t, 1.0, *wp.HDOP)
	assert.Equal(t, 2.0, *wp.VDOP)
	assert.Equal(t, 3.0, *wp.PDOP)
	assert.Equal(t, 4.0, *wp.AgeOfDGPSData)
	assert.EqualValues(t, 12, wp.DGPSID)
	assert.Equal(t, "/img/a.jpg", wp.Image)
	assert.Equal(t, 45.25, *wp.ImageDirection)
	assert.Equal(t, gps.ImageDirectionMagnetic, wp.ImageDirectionRef)
	assert.Equal(t, "flag, blue", wp.Symbol)
	assert.Equal(t, "<x/>", wp.Extensions)
}

func TestReadAll_ImageDirectionRefNeedsDirection(t *testing.T) {
	in := `type="waypoint" name="W" image_direction_ref="1"` + "\n"
	doc, _ := readString(t, in, Options{})
	wp, _ := doc.Waypoints.Get("W")
	assert.Nil(t, wp.ImageDirection)
	assert.Equal(t, gps.ImageDirectionTrue, wp.ImageDirectionRef)
}

func TestReadAll_RelativeImageResolved(t *testing.T) {
	base := filepath.FromSlash("/data/trips")
	in := `type="waypoint" name="W" image="img/a.jpg"` + "\n"
	doc, _ := readString(t, in, Options{BaseDir: base})
	wp, _ := doc.Waypoints.Get("W")
	assert.Equal(t, filepath.Join(base, "img", "a.jpg"), wp.Image)

	doc, _ = readString(t, in, Options{})
	wp, _ = doc.Waypoints.Get("W")
	assert.Equal(t, "img/a.jpg", wp.Image)
}

func TestReadAll_BadColourIgnored(t *testing.T) {
	doc, ok := readString(t, `type="track" name="T" color="not-a-colour"`+"\n", Options{})
	require.True(t, ok)
	trk, _ := doc.Tracks.Get("T")
	assert.Nil(t, trk.Color)
}

func TestReadAll_CustomColourParser(t *testing.T) {
	var seen string
	opts := Options{ParseColor: func(s string) (color.RGBA, error) {
		seen = s
		return color.RGBA{1, 2, 3, 4}, nil
	}}
	doc, _ := readString(t, `type="route" name="R" color="brand"`+"\n", opts)
	rte, _ := doc.Routes.Get("R")
	assert.Equal(t, "brand", seen)
	assert.Equal(t, &color.RGBA{1, 2, 3, 4}, rte.Color)
}

func TestReadAll_UTMMode(t *testing.T) {
	in := `type="waypoint" latitude="48.858222" longitude="2.294500" name="E"` + "\n"
	doc, _ := readString(t, in, Options{CoordMode: coord.ModeUTM})
	wp, _ := doc.Waypoints.Get("E")
	assert.Equal(t, coord.ModeUTM, wp.Coord.Mode)
	assert.Equal(t, 31, wp.Coord.UTM.Zone)
	ll := wp.Coord.ToLatLon()
	assert.InDelta(t, 48.858222, ll.Lat, 1e-6)
	assert.InDelta(t, 2.2945, ll.Lon, 1e-6)
}

func TestReadAll_UTMModeHugeLongitude(t *testing.T) {
	in := `type="waypoint" latitude="10" longitude="1e300" name="far"` + "\n"

	done := make(chan *gps.Document, 1)
	go func() {
		doc, _, _ := Read(strings.NewReader(in), Options{CoordMode: coord.ModeUTM})
		done <- doc
	}()

	select {
	case doc := <-done:
		require.NotNil(t, doc)
		wp, found := doc.Waypoints.Get("far")
		require.True(t, found)
		assert.Equal(t, coord.ModeUTM, wp.Coord.Mode)
	case <-time.After(3 * time.Second):
		t.Fatal("Read did not return for longitude=1e300 in UTM mode")
	}
}

func TestReadAll_LongLineTruncated(t *testing.T) {
	in := `type="waypoint" name="A" comment="` + strings.Repeat("x", 200) + `"` + "\n" +
		`type="waypoint" name="B"` + "\n"
	doc, ok := readString(t, in, Options{MaxLineBytes: 64})
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, doc.Waypoints.Names())
	a, _ := doc.Waypoints.Get("A")
	assert.Equal(t, "", a.Comment)
}

func TestReadAll_CRLF(t *testing.T) {
	in := "type=\"waypoint\" name=\"A\" comment=\"c\"\r\ntype=\"waypoint\" name=\"B\"\r\n"
	doc, ok := readString(t, in, Options{})
	require.True(t, ok)
	a, _ := doc.Waypoints.Get("A")
	assert.Equal(t, "c", a.Comment)
	assert.Equal(t, 2, doc.Waypoints.Len())
}

func TestReadAll_DuplicateNameReplaces(t *testing.T) {
	in := `type="waypoint" name="A" comment="first"
type="waypoint" name="B"
type="waypoint" name="A" comment="second"
`
	doc, _ := readString(t, in, Options{})
	assert.Equal(t, []string{"A", "B"}, doc.Waypoints.Names())
	a, _ := doc.Waypoints.Get("A")
	assert.Equal(t, "second", a.Comment)
}

func TestReadAll_ReaderError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(
		strings.NewReader(`type="waypoint" name="A"`+"\n"),
		iotest.ErrReader(boom),
	)
	doc, ok, err := NewReader(r, Options{}).ReadAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, ok)
	_, found := doc.Waypoints.Get("A")
	assert.True(t, found)
}
