package charts

import (
	"fmt"
	"io"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jgoulah/waterdash/internal/filter"
)

// Format is an image encoding supported by Render
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

const (
	width  = 800
	height = 400

	litersLabel = "Water Consumption (L)"
	totalLabel  = "Total Consumption (L)"
)

var seriesColors = []drawing.Color{chart.ColorBlue, chart.ColorRed, chart.ColorGreen, chart.ColorOrange}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

// Render draws chart kind for view in the given format
func Render(kind Kind, view *filter.View, format Format, w io.Writer) error {
	rp, err := provider(format)
	if err != nil {
		return err
	}
	if view.Len() == 0 {
		return fmt.Errorf("rendering %s: %w", kind, ErrNoData)
	}

	switch kind {
	case KindConsumeOverTime:
		return renderTimeSeries(ConsumeOverTime(view), rp, w)
	case KindTotalByUser:
		return renderBars(TotalByUser(view), rp, w)
	case KindAtHomeShare:
		return renderPie(AtHomeShare(view), rp, w)
	case KindConsumeScatter:
		return renderScatter(ConsumeScatter(view), rp, w)
	default:
		return fmt.Errorf("unknown chart: %s", kind)
	}
}

func provider(format Format) (chart.RendererProvider, error) {
	switch format {
	case FormatPNG, "":
		return chart.PNG, nil
	case FormatSVG:
		return chart.SVG, nil
	default:
		return nil, fmt.Errorf("unknown chart format: %s", format)
	}
}

func renderTimeSeries(points []TimePoint, rp chart.RendererProvider, w io.Writer) error {
	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Time
		ys[i] = p.Value
	}

	minT, maxT := xs[0], xs[0]
	for _, t := range xs {
		if t.Before(minT) {
			minT = t
		}
		if t.After(maxT) {
			maxT = t
		}
	}
	// go-chart refuses a zero-width range
	if !maxT.After(minT) {
		maxT = minT.Add(time.Minute)
	}
	ymin, ymax := span(ys)

	ch := chart.Chart{
		Title:      KindConsumeOverTime.Title(),
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Date",
			Range: &chart.ContinuousRange{Min: chart.TimeToFloat64(minT), Max: chart.TimeToFloat64(maxT)},
		},
		YAxis: chart.YAxis{
			Name:  litersLabel,
			Range: &chart.ContinuousRange{Min: ymin, Max: ymax},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "consume",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 1.5},
			},
		},
	}

	if err := ch.Render(rp, w); err != nil {
		return fmt.Errorf("rendering %s: %w", KindConsumeOverTime, err)
	}
	return nil
}

func renderBars(bars []Bar, rp chart.RendererProvider, w io.Writer) error {
	values := make([]chart.Value, len(bars))
	ys := make([]float64, len(bars))
	for i, b := range bars {
		values[i] = chart.Value{Label: b.Label, Value: b.Value}
		ys[i] = b.Value
	}
	ymin, ymax := span(append(ys, 0))

	bc := chart.BarChart{
		Title:      KindTotalByUser.Title(),
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		BarWidth:   40,
		YAxis: chart.YAxis{
			Name:  totalLabel,
			Range: &chart.ContinuousRange{Min: ymin, Max: ymax},
		},
		Bars: values,
	}

	if err := bc.Render(rp, w); err != nil {
		return fmt.Errorf("rendering %s: %w", KindTotalByUser, err)
	}
	return nil
}

func renderPie(slices []Slice, rp chart.RendererProvider, w io.Writer) error {
	var total float64
	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		total += s.Value
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", s.Label, s.Share*100),
			Value: s.Value,
		})
	}
	if total <= 0 {
		return fmt.Errorf("rendering %s: %w", KindAtHomeShare, ErrNoData)
	}

	pc := chart.PieChart{
		Title:  KindAtHomeShare.Title(),
		Width:  height,
		Height: height,
		Values: values,
	}

	if err := pc.Render(rp, w); err != nil {
		return fmt.Errorf("rendering %s: %w", KindAtHomeShare, err)
	}
	return nil
}

func renderScatter(groups []ScatterSeries, rp chart.RendererProvider, w io.Writer) error {
	var allX, allY []float64
	series := make([]chart.Series, 0, len(groups))
	for i, g := range groups {
		xs := make([]float64, len(g.Points))
		ys := make([]float64, len(g.Points))
		for j, p := range g.Points {
			xs[j] = p.X
			ys[j] = p.Y
		}
		allX = append(allX, xs...)
		allY = append(allY, ys...)
		series = append(series, chart.ContinuousSeries{
			Name:    g.Name,
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(seriesColors[i%len(seriesColors)]),
		})
	}
	xmin, xmax := span(allX)
	ymin, ymax := span(allY)

	ch := chart.Chart{
		Title:      KindConsumeScatter.Title(),
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: totalLabel, Range: &chart.ContinuousRange{Min: xmin, Max: xmax}},
		YAxis:      chart.YAxis{Name: litersLabel, Range: &chart.ContinuousRange{Min: ymin, Max: ymax}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(rp, w); err != nil {
		return fmt.Errorf("rendering %s: %w", KindConsumeScatter, err)
	}
	return nil
}

// span returns the min and max of values, widened to a non-zero range
func span(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(values) == 0 {
		return 0, 1
	}
	if hi <= lo {
		return lo - 1, hi + 1
	}
	return lo, hi
}
