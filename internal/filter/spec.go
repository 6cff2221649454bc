// Package filter applies categorical and time-range constraints to a dataset.
package filter

import (
	"errors"
	"time"

	"github.com/jgoulah/waterdash/internal/dataset"
	"github.com/jgoulah/waterdash/pkg/models"
)

// ErrType is returned when a spec value does not match its column's type
var ErrType = errors.New("filter value type mismatch")

// TimeRange is an inclusive [Start, End] bound on reading time
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the range, inclusive on both ends
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Spec is the set of user-chosen constraints for one render cycle.
//
// Selections holds the allowed values per categorical column in canonical
// string form. A missing, nil or empty selection leaves the column
// unconstrained; "select all" is expressed the same way.
type Spec struct {
	Selections map[models.Column][]string `json:"selections,omitempty"`
	Range      TimeRange                  `json:"range"`
}

// NewSpec returns the widget default for ds: no selections and a time
// range spanning the whole dataset
func NewSpec(ds *dataset.Dataset) Spec {
	start, end := ds.Bounds()
	return Spec{Range: TimeRange{Start: start, End: end}}
}

// Select restricts col to values, replacing any previous selection
func (s *Spec) Select(col models.Column, values ...string) {
	if len(values) == 0 {
		s.SelectAll(col)
		return
	}
	if s.Selections == nil {
		s.Selections = make(map[models.Column][]string)
	}
	s.Selections[col] = append([]string(nil), values...)
}

// SelectAll removes any constraint on col
func (s *Spec) SelectAll(col models.Column) {
	delete(s.Selections, col)
}

// Constrained reports whether col has a non-empty selection
func (s Spec) Constrained(col models.Column) bool {
	return len(s.Selections[col]) > 0
}
