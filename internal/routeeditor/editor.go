// Package routeeditor holds the click-to-add waypoint editor used to draw
// routes. Every change to the waypoint list recomputes the encoded polyline
// and the total distance and hands the result to an optional observer.
package routeeditor

import (
	"errors"
	"fmt"

	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/polyline"
)

// ErrIndexOutOfRange is returned by DragPoint for an index with no waypoint.
var ErrIndexOutOfRange = errors.New("waypoint index out of range")

// Snapshot is the derived state of an editor after a change.
type Snapshot struct {
	Waypoints []geo.Point `json:"waypoints"`
	Distance  float64     `json:"distance"`
	Polyline  string      `json:"polyline"`
}

// Observer receives a snapshot after every change.
type Observer func(Snapshot)

// Editor is not safe for concurrent use.
type Editor struct {
	waypoints []geo.Point
	snap      Snapshot
	observer  Observer
}

// New returns an empty editor. observer may be nil.
func New(observer Observer) *Editor {
	e := &Editor{observer: observer}
	e.recompute()
	return e
}

// Restore returns an editor holding points without notifying the observer.
func Restore(points []geo.Point, observer Observer) *Editor {
	e := &Editor{
		waypoints: append([]geo.Point(nil), points...),
		observer:  observer,
	}
	e.recompute()
	return e
}

// AddPoint appends p to the end of the route.
func (e *Editor) AddPoint(p geo.Point) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("routeeditor.AddPoint: %w", err)
	}
	e.waypoints = append(e.waypoints, p)
	e.changed()
	return nil
}

// DragPoint moves the waypoint at index i to p.
func (e *Editor) DragPoint(i int, p geo.Point) error {
	if i < 0 || i >= len(e.waypoints) {
		return fmt.Errorf("routeeditor.DragPoint: %w: %d (have %d)", ErrIndexOutOfRange, i, len(e.waypoints))
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("routeeditor.DragPoint: %w", err)
	}
	e.waypoints[i] = p
	e.changed()
	return nil
}

// Undo removes the last waypoint. It does nothing on an empty route.
func (e *Editor) Undo() {
	if len(e.waypoints) == 0 {
		return
	}
	e.waypoints = e.waypoints[:len(e.waypoints)-1]
	e.changed()
}

// Clear removes every waypoint.
func (e *Editor) Clear() {
	e.waypoints = nil
	e.changed()
}

// Len returns the number of waypoints.
func (e *Editor) Len() int { return len(e.waypoints) }

// Snapshot returns a copy of the current derived state.
func (e *Editor) Snapshot() Snapshot {
	return copySnapshot(e.snap)
}

func (e *Editor) changed() {
	e.recompute()
	if e.observer != nil {
		e.observer(copySnapshot(e.snap))
	}
}

func (e *Editor) recompute() {
	e.snap = Snapshot{
		Waypoints: e.waypoints,
		Distance:  geo.Distance(e.waypoints),
		Polyline:  polyline.Encode(e.waypoints),
	}
}

func copySnapshot(s Snapshot) Snapshot {
	s.Waypoints = append(make([]geo.Point, 0, len(s.Waypoints)), s.Waypoints...)
	return s
}
