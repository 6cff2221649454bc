package filter

import (
	"fmt"
	"strconv"

	"github.com/jgoulah/waterdash/pkg/models"
)

// Predicate reports whether a reading passes a constraint
type Predicate func(models.Reading) bool

// In returns a predicate that keeps readings whose col value is one of
// values. Membership is exact equality on the column's semantic type.
// An empty values list yields nil, meaning no constraint.
func In(col models.Column, values []string) (Predicate, error) {
	if len(values) == 0 {
		return nil, nil
	}

	switch col.Kind() {
	case models.KindString:
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[v] = true
		}
		return func(r models.Reading) bool {
			return set[r.Value(col)]
		}, nil

	case models.KindBool:
		var allowTrue, allowFalse bool
		for _, v := range values {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s expects a boolean, got %q", ErrType, col, v)
			}
			if b {
				allowTrue = true
			} else {
				allowFalse = true
			}
		}
		return func(r models.Reading) bool {
			v := r.IsAtHome
			if col == models.ColumnIsAnomalous {
				v = r.IsAnomalous
			}
			if v {
				return allowTrue
			}
			return allowFalse
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q is not a categorical column", ErrType, col)
	}
}

// Between returns a predicate that keeps readings within r, inclusive
func Between(r TimeRange) Predicate {
	return func(rd models.Reading) bool {
		return r.Contains(rd.Time)
	}
}

// All composes predicates by conjunction. Nil predicates are skipped.
func All(preds ...Predicate) Predicate {
	active := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	return func(r models.Reading) bool {
		for _, p := range active {
			if !p(r) {
				return false
			}
		}
		return true
	}
}
