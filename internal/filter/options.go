package filter

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/waterdash/internal/dataset"
	"github.com/jgoulah/waterdash/pkg/models"
)

// Options is what a UI needs to populate its filter widgets
type Options struct {
	Values   map[models.Column][]string `json:"values"`
	Start    time.Time                  `json:"start"`
	End      time.Time                  `json:"end"`
	MinEpoch float64                    `json:"minEpoch"`
	MaxEpoch float64                    `json:"maxEpoch"`
}

// BuildOptions collects the distinct values of each categorical column and
// the time bounds of ds
func BuildOptions(ds *dataset.Dataset) Options {
	opts := Options{Values: make(map[models.Column][]string, len(models.Categorical))}
	for _, col := range models.Categorical {
		opts.Values[col] = ds.Distinct(col)
	}
	opts.Start, opts.End = ds.Bounds()
	opts.MinEpoch, opts.MaxEpoch = ds.EpochBounds()
	return opts
}

// allParam names the column list whose "select all" box is ticked
const allParam = "all"

// FromValues builds a spec from widget state encoded as query parameters.
//
// Each categorical column is a repeated parameter named after the column.
// all=<column> clears that column's selection. start and end accept epoch
// seconds or a timestamp and default to the dataset bounds.
func FromValues(v url.Values, ds *dataset.Dataset) (Spec, error) {
	spec := NewSpec(ds)

	for _, col := range models.Categorical {
		values := nonEmpty(v[string(col)])
		if len(values) > 0 {
			spec.Select(col, values...)
		}
	}
	for _, name := range v[allParam] {
		for _, col := range strings.Split(name, ",") {
			spec.SelectAll(models.Column(strings.TrimSpace(col)))
		}
	}

	if s := v.Get("start"); s != "" {
		t, err := parseRangeBound(s, ds)
		if err != nil {
			return Spec{}, fmt.Errorf("parsing start: %w", err)
		}
		spec.Range.Start = t
	}
	if s := v.Get("end"); s != "" {
		t, err := parseRangeBound(s, ds)
		if err != nil {
			return Spec{}, fmt.Errorf("parsing end: %w", err)
		}
		spec.Range.End = t
	}

	return spec, nil
}

// edgeTolerance is how close an epoch bound must be to a dataset edge to be
// read as that edge. float64 seconds lose sub-microsecond digits, so an
// epoch taken from EpochBounds cannot be converted back exactly.
const edgeTolerance = 1e-6

// parseRangeBound parses a bound like ParseBound but maps epoch values at
// the dataset edges onto the exact first and last row times
func parseRangeBound(s string, ds *dataset.Dataset) (time.Time, error) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && ds.Len() > 0 {
		minEpoch, maxEpoch := ds.EpochBounds()
		minTime, maxTime := ds.Bounds()
		switch {
		case math.Abs(f-minEpoch) < edgeTolerance:
			return minTime, nil
		case math.Abs(f-maxEpoch) < edgeTolerance:
			return maxTime, nil
		}
	}
	return ParseBound(s)
}

// ParseBound parses a range endpoint given as epoch seconds or a timestamp
func ParseBound(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return dataset.EpochToTime(f), nil
	}
	t, err := dataset.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither epoch seconds nor a timestamp", ErrType, s)
	}
	return t, nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
