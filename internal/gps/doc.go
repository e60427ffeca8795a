// Package gps holds the in-memory model of a track file: named waypoints,
// tracks and routes, kept in the order they were read or added.
package gps
