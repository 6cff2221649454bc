// Package charts turns a filtered view into the dashboard's four chart
// datasets and renders them with go-chart.
package charts

import (
	"errors"
	"time"

	"github.com/jgoulah/waterdash/internal/filter"
	"github.com/jgoulah/waterdash/pkg/models"
)

// ErrNoData is returned when a chart has nothing to draw
var ErrNoData = errors.New("no data to chart")

// Kind names one of the dashboard charts
type Kind string

const (
	KindConsumeOverTime Kind = "consume-over-time"
	KindTotalByUser     Kind = "total-by-user"
	KindAtHomeShare     Kind = "at-home-share"
	KindConsumeScatter  Kind = "consume-scatter"
)

// Kinds lists the charts in dashboard order
var Kinds = []Kind{KindConsumeOverTime, KindTotalByUser, KindAtHomeShare, KindConsumeScatter}

// Title returns the display title of a chart
func (k Kind) Title() string {
	switch k {
	case KindConsumeOverTime:
		return "Water Consumption Over Time"
	case KindTotalByUser:
		return "Total Consumption by User"
	case KindAtHomeShare:
		return "Consumption at Home vs Not at Home"
	case KindConsumeScatter:
		return "Consumption vs Total Consumption"
	default:
		return string(k)
	}
}

// Valid reports whether k names a known chart
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// TimePoint is one sample of a time series
type TimePoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Point is one scatter sample
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bar is one labelled bar
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Slice is one pie wedge. Share is Value over the pie total, 0..1.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Share float64 `json:"share"`
}

// ScatterSeries is a named group of scatter points
type ScatterSeries struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Set holds the data for all four charts
type Set struct {
	Rows            int             `json:"rows"`
	ConsumeOverTime []TimePoint     `json:"consumeOverTime"`
	TotalByUser     []Bar           `json:"totalByUser"`
	AtHomeShare     []Slice         `json:"atHomeShare"`
	ConsumeScatter  []ScatterSeries `json:"consumeScatter"`
}

// Build computes every chart for view
func Build(view *filter.View) Set {
	return Set{
		Rows:            view.Len(),
		ConsumeOverTime: ConsumeOverTime(view),
		TotalByUser:     TotalByUser(view),
		AtHomeShare:     AtHomeShare(view),
		ConsumeScatter:  ConsumeScatter(view),
	}
}

// ConsumeOverTime returns consume against time in view order
func ConsumeOverTime(view *filter.View) []TimePoint {
	points := make([]TimePoint, 0, view.Len())
	view.Each(func(_ int, r models.Reading) {
		points = append(points, TimePoint{Time: r.Time, Value: r.Consume})
	})
	return points
}

// TotalByUser sums totalConsume per user, in first-seen order
func TotalByUser(view *filter.View) []Bar {
	index := make(map[string]int)
	bars := []Bar{}
	view.Each(func(_ int, r models.Reading) {
		i, ok := index[r.UserID]
		if !ok {
			i = len(bars)
			index[r.UserID] = i
			bars = append(bars, Bar{Label: r.UserID})
		}
		bars[i].Value += r.TotalConsume
	})
	return bars
}

// AtHomeShare splits consume by whether the user was at home
func AtHomeShare(view *filter.View) []Slice {
	index := make(map[bool]int)
	slices := []Slice{}
	var total float64
	view.Each(func(_ int, r models.Reading) {
		i, ok := index[r.IsAtHome]
		if !ok {
			i = len(slices)
			index[r.IsAtHome] = i
			slices = append(slices, Slice{Label: atHomeLabel(r.IsAtHome)})
		}
		slices[i].Value += r.Consume
		total += r.Consume
	})
	if total != 0 {
		for i := range slices {
			slices[i].Share = slices[i].Value / total
		}
	}
	return slices
}

// ConsumeScatter pairs totalConsume (x) with consume (y), grouped by the
// anomaly flag
func ConsumeScatter(view *filter.View) []ScatterSeries {
	index := make(map[bool]int)
	series := []ScatterSeries{}
	view.Each(func(_ int, r models.Reading) {
		i, ok := index[r.IsAnomalous]
		if !ok {
			i = len(series)
			index[r.IsAnomalous] = i
			series = append(series, ScatterSeries{Name: anomalyLabel(r.IsAnomalous)})
		}
		series[i].Points = append(series[i].Points, Point{X: r.TotalConsume, Y: r.Consume})
	})
	return series
}

func atHomeLabel(atHome bool) string {
	if atHome {
		return "At Home"
	}
	return "Not at Home"
}

func anomalyLabel(anomalous bool) string {
	if anomalous {
		return "Anomalous"
	}
	return "Normal"
}
