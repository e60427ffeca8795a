package gps

import (
	"iter"

	"cogentcore.org/core/base/keylist"
)

// Collection maps names to entities and remembers insertion order, so that
// documents are written back in the order they were read.
//
// The zero value is an empty collection.
type Collection[T any] struct {
	list keylist.List[string, T]
}

// Set stores v under name. An existing entry with the same name is replaced
// in place and keeps its position.
func (c *Collection[T]) Set(name string, v T) {
	c.list.Set(name, v)
}

func (c *Collection[T]) Get(name string) (T, bool) {
	return c.list.AtTry(name)
}

func (c *Collection[T]) Delete(name string) bool {
	return c.list.DeleteByKey(name)
}

func (c *Collection[T]) Len() int {
	return c.list.Len()
}

// Names returns the names in insertion order.
func (c *Collection[T]) Names() []string {
	return append([]string(nil), c.list.Keys...)
}

// All iterates name/value pairs in insertion order.
func (c *Collection[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for i, k := range c.list.Keys {
			if !yield(k, c.list.Values[i]) {
				return
			}
		}
	}
}

// Document is the content of one track file.
type Document struct {
	Waypoints Collection[*Waypoint]
	Tracks    Collection[*Track]
	Routes    Collection[*Track]
}

func NewDocument() *Document {
	return &Document{}
}

// AddTrack files t under Tracks or Routes depending on t.IsRoute.
func (d *Document) AddTrack(t *Track) {
	if t.IsRoute {
		d.Routes.Set(t.Name, t)
		return
	}
	d.Tracks.Set(t.Name, t)
}

// Empty reports whether the document holds no entities at all.
func (d *Document) Empty() bool {
	return d.Waypoints.Len() == 0 && d.Tracks.Len() == 0 && d.Routes.Len() == 0
}
