package server

import (
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jgoulah/waterdash/internal/charts"
	"github.com/jgoulah/waterdash/internal/dataset"
	"github.com/jgoulah/waterdash/internal/filter"
	"github.com/jgoulah/waterdash/pkg/models"
)

// maxTableRows caps the rows rendered into the page table
const maxTableRows = 500

type columnWidget struct {
	Name    string
	Label   string
	Options []optionWidget
}

type optionWidget struct {
	Value    string
	Selected bool
}

type chartWidget struct {
	Title string
	Src   string
}

type pageData struct {
	Error     string
	Source    string
	Rows      string
	Total     string
	Anomalies string
	Latest    string
	Columns   []columnWidget
	MinEpoch  string
	MaxEpoch  string
	Start     string
	End       string
	Readings  []models.Reading
	Truncated bool
	Charts    []chartWidget
}

var columnLabels = map[models.Column]string{
	models.ColumnID:          "ID",
	models.ColumnUserID:      "User ID",
	models.ColumnDeviceID:    "Device ID",
	models.ColumnIsAtHome:    "Is At Home",
	models.ColumnIsAnomalous: "Is Anomalous",
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
	"liters": func(f float64) string { return humanize.CommafWithDigits(f, 2) },
}).Parse(pageHTML))

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Source: s.dataPath}

	ds, err := s.cache.Get(s.dataPath)
	if err != nil {
		s.log.Error("%v", err)
		data.Error = err.Error()
		s.renderPage(w, http.StatusInternalServerError, data)
		return
	}

	// A bad spec is reported on the page and the unfiltered view shown
	status := http.StatusOK
	chartQuery := r.URL.RawQuery
	spec, err := filter.FromValues(r.URL.Query(), ds)
	if err == nil {
		_, err = filter.Compile(spec)
	}
	if err != nil {
		data.Error = err.Error()
		status = statusFor(err)
		spec = filter.NewSpec(ds)
		chartQuery = ""
	}
	view, err := filter.Apply(ds, spec)
	if err != nil {
		s.writeError(w, err)
		return
	}

	fillWidgets(&data, ds, spec)

	summary := view.Summary()
	data.Rows = humanize.Comma(int64(summary.Rows))
	data.Total = humanize.CommafWithDigits(summary.ConsumeSum, 2)
	data.Anomalies = humanize.Comma(int64(summary.Anomalies))
	if !summary.Last.IsZero() {
		data.Latest = humanize.Time(summary.Last)
	}

	data.Readings = view.Readings()
	if len(data.Readings) > maxTableRows {
		data.Readings = data.Readings[:maxTableRows]
		data.Truncated = true
	}

	if view.Len() > 0 {
		for _, kind := range charts.Kinds {
			data.Charts = append(data.Charts, chartWidget{
				Title: kind.Title(),
				Src:   "/api/charts/" + string(kind) + ".png?" + chartQuery,
			})
		}
	}

	s.renderPage(w, status, data)
}

// fillWidgets populates the filter form from the dataset options and the
// current spec
func fillWidgets(data *pageData, ds *dataset.Dataset, spec filter.Spec) {
	opts := filter.BuildOptions(ds)

	for _, col := range models.Categorical {
		selected := make(map[string]bool)
		for _, v := range spec.Selections[col] {
			selected[v] = true
		}

		widget := columnWidget{
			Name:  string(col),
			Label: columnLabels[col],
		}
		for _, v := range opts.Values[col] {
			widget.Options = append(widget.Options, optionWidget{Value: v, Selected: selected[v]})
		}
		data.Columns = append(data.Columns, widget)
	}

	data.MinEpoch = formatEpoch(opts.MinEpoch)
	data.MaxEpoch = formatEpoch(opts.MaxEpoch)
	data.Start = formatEpoch(dataset.Epoch(spec.Range.Start))
	data.End = formatEpoch(dataset.Epoch(spec.Range.End))
}

func formatEpoch(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.log.Error("Rendering page: %v", err)
	}
}

const pageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Water Consumption Analysis Dashboard</title>
<style>
body { font-family: sans-serif; display: flex; margin: 0; }
aside { width: 280px; padding: 1em; background: #f4f6f8; min-height: 100vh; }
main { flex: 1; padding: 1em; overflow-x: auto; }
.error { background: #fde2e1; color: #8a1c14; padding: .75em; border-radius: 4px; }
table { border-collapse: collapse; font-size: 13px; }
td, th { border: 1px solid #ddd; padding: 2px 6px; }
fieldset { margin-bottom: .75em; }
</style>
</head>
<body>
<aside>
<h2>Filter Data</h2>
<form method="get" action="/">
{{range .Columns}}
<fieldset>
<legend>{{.Label}}</legend>
<label><input type="checkbox" name="all" value="{{.Name}}"> Select All {{.Label}}</label><br>
<select name="{{.Name}}" multiple size="4">
{{- range .Options}}
<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
{{- end}}
</select>
</fieldset>
{{end}}
<fieldset>
<legend>Select Time Range</legend>
<label>Start <input type="range" name="start" min="{{.MinEpoch}}" max="{{.MaxEpoch}}" step="any" value="{{.Start}}"></label><br>
<label>End <input type="range" name="end" min="{{.MinEpoch}}" max="{{.MaxEpoch}}" step="any" value="{{.End}}"></label>
</fieldset>
<button type="submit">Apply</button> <a href="/">Reset</a>
</form>
</aside>
<main>
<h1>Water Consumption Analysis Dashboard</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Rows}}
<p>Showing {{.Rows}} rows of filtered data from {{.Source}}.
Total consumption {{.Total}} L, {{.Anomalies}} anomalous readings{{if .Latest}}, latest reading {{.Latest}}{{end}}.</p>
<table>
<tr><th>id</th><th>userId</th><th>deviceId</th><th>isAtHome</th><th>isAnomalous</th><th>time</th><th>consume</th><th>totalConsume</th></tr>
{{range .Readings}}<tr><td>{{.ID}}</td><td>{{.UserID}}</td><td>{{.DeviceID}}</td><td>{{.IsAtHome}}</td><td>{{.IsAnomalous}}</td><td>{{stamp .Time}}</td><td>{{liters .Consume}}</td><td>{{liters .TotalConsume}}</td></tr>
{{end}}</table>
{{if .Truncated}}<p>Table truncated; use the API for the full result.</p>{{end}}
<h2>Charts</h2>
{{range .Charts}}<figure><img src="{{.Src}}" alt="{{.Title}}"><figcaption>{{.Title}}</figcaption></figure>
{{end}}
{{end}}
</main>
</body>
</html>
`
