package gps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_OrderAndReplace(t *testing.T) {
	var c Collection[int]
	c.Set("c", 1)
	c.Set("a", 2)
	c.Set("b", 3)
	c.Set("a", 20)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"c", "a", "b"}, c.Names())

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 20, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCollection_Delete(t *testing.T) {
	var c Collection[string]
	c.Set("x", "1")
	c.Set("y", "2")
	c.Set("z", "3")

	assert.True(t, c.Delete("y"))
	assert.False(t, c.Delete("y"))
	assert.Equal(t, []string{"x", "z"}, c.Names())

	v, ok := c.Get("z")
	require.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestCollection_All(t *testing.T) {
	var c Collection[int]
	for i, name := range []string{"one", "two", "three"} {
		c.Set(name, i+1)
	}

	var names []string
	var sum int
	for name, v := range c.All() {
		names = append(names, name)
		sum += v
	}
	assert.Equal(t, []string{"one", "two", "three"}, names)
	assert.Equal(t, 6, sum)

	// Early break stops the iteration.
	n := 0
	for range c.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestCollection_NamesIsACopy(t *testing.T) {
	var c Collection[int]
	c.Set("a", 1)
	names := c.Names()
	names[0] = "changed"
	assert.Equal(t, []string{"a"}, c.Names())
}

func TestDocument_AddTrack(t *testing.T) {
	doc := NewDocument()
	assert.True(t, doc.Empty())

	trk := NewTrack(false)
	trk.Name = "same"
	rte := NewTrack(true)
	rte.Name = "same"
	doc.AddTrack(trk)
	doc.AddTrack(rte)

	assert.False(t, doc.Empty())
	gotTrk, ok := doc.Tracks.Get("same")
	require.True(t, ok)
	assert.Same(t, trk, gotTrk)

	gotRte, ok := doc.Routes.Get("same")
	require.True(t, ok)
	assert.Same(t, rte, gotRte)
}

func TestTrack_Segments(t *testing.T) {
	trk := NewTrack(false)
	assert.Equal(t, 0, trk.Segments())

	// A leading NewSegment does not start a second segment.
	trk.Points = []*Trackpoint{{NewSegment: true}, {}, {NewSegment: true}, {}, {NewSegment: true}}
	assert.Equal(t, 3, trk.Segments())
}

func TestTrackpoint_HasExtended(t *testing.T) {
	assert.False(t, (&Trackpoint{}).HasExtended())
	assert.False(t, (&Trackpoint{HDOP: Float(1), FixMode: 3}).HasExtended())
	assert.True(t, (&Trackpoint{Speed: Float(0)}).HasExtended())
	assert.True(t, (&Trackpoint{Course: Float(90)}).HasExtended())
	assert.True(t, (&Trackpoint{Sats: 4}).HasExtended())
}

func TestNewWaypoint_Visible(t *testing.T) {
	wp := NewWaypoint()
	assert.True(t, wp.Visible)
	assert.Nil(t, wp.Altitude)
}
