// Package dataset loads water consumption readings from CSV into memory.
package dataset

import (
	"math"
	"time"

	"github.com/jgoulah/waterdash/pkg/models"
)

// Dataset is an ordered, read-only table of readings loaded from one source
type Dataset struct {
	source   string
	readings []models.Reading
	epochs   []float64 // seconds since the Unix epoch, per row
}

// New builds a dataset from readings already in memory, preserving order
func New(source string, readings []models.Reading) *Dataset {
	epochs := make([]float64, len(readings))
	for i, r := range readings {
		epochs[i] = Epoch(r.Time)
	}
	return &Dataset{source: source, readings: readings, epochs: epochs}
}

// Source returns the path the dataset was loaded from
func (d *Dataset) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

// Len returns the number of readings
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.readings)
}

// At returns the reading at row i
func (d *Dataset) At(i int) models.Reading {
	return d.readings[i]
}

// EpochAt returns the epoch seconds of row i
func (d *Dataset) EpochAt(i int) float64 {
	return d.epochs[i]
}

// Readings returns a copy of all readings in source order
func (d *Dataset) Readings() []models.Reading {
	out := make([]models.Reading, d.Len())
	if d != nil {
		copy(out, d.readings)
	}
	return out
}

// Bounds returns the earliest and latest reading times.
// Both are zero for an empty dataset.
func (d *Dataset) Bounds() (min, max time.Time) {
	for i := 0; i < d.Len(); i++ {
		t := d.readings[i].Time
		if i == 0 || t.Before(min) {
			min = t
		}
		if i == 0 || t.After(max) {
			max = t
		}
	}
	return min, max
}

// EpochBounds returns Bounds as epoch seconds, for range widgets
func (d *Dataset) EpochBounds() (min, max float64) {
	for i := 0; i < d.Len(); i++ {
		e := d.epochs[i]
		if i == 0 || e < min {
			min = e
		}
		if i == 0 || e > max {
			max = e
		}
	}
	return min, max
}

// Distinct returns the distinct values of a categorical column in
// first-seen order
func (d *Dataset) Distinct(col models.Column) []string {
	seen := make(map[string]bool)
	values := []string{}
	for i := 0; i < d.Len(); i++ {
		v := d.readings[i].Value(col)
		if seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

// Epoch converts a timestamp to floating point seconds since the Unix epoch
func Epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// EpochToTime converts epoch seconds back to a UTC timestamp, rounded to
// the microsecond. float64 seconds cannot hold nanoseconds for present-day
// instants, so rounding keeps widget endpoints on the row times they came from.
func EpochToTime(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	micros := math.Round(frac * 1e6)
	return time.Unix(int64(whole), int64(micros)*int64(time.Microsecond)).UTC()
}
