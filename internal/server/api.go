package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-json-experiment/json"
	"github.com/gorilla/mux"

	"github.com/jgoulah/waterdash/internal/charts"
	"github.com/jgoulah/waterdash/internal/filter"
	"github.com/jgoulah/waterdash/pkg/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

type readingsResponse struct {
	Count    int              `json:"count"`
	Spec     filter.Spec      `json:"spec"`
	Summary  filter.Summary   `json:"summary"`
	Readings []models.Reading `json:"readings"`
}

type chartsResponse struct {
	Spec    filter.Spec    `json:"spec"`
	Summary filter.Summary `json:"summary"`
	Charts  charts.Set     `json:"charts"`
}

// filterRequest loads the dataset and applies the filter encoded in params
func (s *Server) filterRequest(params url.Values) (filter.Spec, *filter.View, error) {
	ds, err := s.cache.Get(s.dataPath)
	if err != nil {
		return filter.Spec{}, nil, err
	}

	spec, err := filter.FromValues(params, ds)
	if err != nil {
		return filter.Spec{}, nil, err
	}

	view, err := filter.Apply(ds, spec)
	if err != nil {
		return filter.Spec{}, nil, err
	}

	return spec, view, nil
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds, err := s.cache.Get(s.dataPath)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, filter.BuildOptions(ds))
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	spec, view, err := s.filterRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	readings := view.Readings()
	s.writeJSON(w, http.StatusOK, readingsResponse{
		Count:    len(readings),
		Spec:     spec,
		Summary:  filter.Summarize(readings),
		Readings: readings,
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	spec, view, err := s.filterRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, chartsResponse{
		Spec:    spec,
		Summary: view.Summary(),
		Charts:  charts.Build(view),
	})
}

func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := charts.Kind(vars["kind"])
	format := charts.Format(vars["format"])
	if !kind.Valid() {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown chart: " + string(kind)})
		return
	}

	_, view, err := s.filterRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	if err := charts.Render(kind, view, format, w); err != nil {
		s.writeError(w, err)
	}
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, filter.ErrType):
		return http.StatusBadRequest
	case errors.Is(err, charts.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("%v", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, v, json.Deterministic(true)); err != nil {
		s.log.Error("Encoding response: %v", err)
	}
}
