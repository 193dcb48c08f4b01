package gait

import "fmt"

// EventKind distinguishes the two detected gait events.
type EventKind string

const (
	HeelStrike EventKind = "heel_strike"
	ToeOff     EventKind = "toe_off"
)

// Event is one detected gait event: a sample index and the transform
// magnitude at that index, kept for annotating plots.
type Event struct {
	Index     int     `json:"index"`
	Magnitude float64 `json:"magnitude"`
}

// EventIndexSet is an ordered set of events with strictly increasing indices.
type EventIndexSet struct {
	Kind   EventKind `json:"kind"`
	Events []Event   `json:"events"`
}

// NewEventIndexSet pairs each index with its magnitude from row. Indices must
// be strictly increasing and within row.
func NewEventIndexSet(kind EventKind, indices []int, row []float64) (EventIndexSet, error) {
	set := EventIndexSet{Kind: kind, Events: make([]Event, 0, len(indices))}
	for i, idx := range indices {
		if idx < 0 || idx >= len(row) {
			return EventIndexSet{}, fmt.Errorf("%s index %d out of range [0, %d)", kind, idx, len(row))
		}
		if i > 0 && idx <= indices[i-1] {
			return EventIndexSet{}, fmt.Errorf("%s indices not strictly increasing at position %d", kind, i)
		}
		set.Events = append(set.Events, Event{Index: idx, Magnitude: row[idx]})
	}
	return set, nil
}

// Len returns the number of events.
func (s EventIndexSet) Len() int { return len(s.Events) }

// Indices returns the sample indices in order.
func (s EventIndexSet) Indices() []int {
	out := make([]int, len(s.Events))
	for i, e := range s.Events {
		out[i] = e.Index
	}
	return out
}

// Magnitudes returns the transform magnitude at each event.
func (s EventIndexSet) Magnitudes() []float64 {
	out := make([]float64, len(s.Events))
	for i, e := range s.Events {
		out[i] = e.Magnitude
	}
	return out
}
