package webapi

import (
	"encoding/json"
	"time"

	"github.com/tunelab/tunestore/internal/aggregate"
	"github.com/tunelab/tunestore/internal/dataset"
	"github.com/tunelab/tunestore/internal/models"
)

// ExperimentSummary is the API response for a single experiment in the list.
type ExperimentSummary struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	CreatedAt   float64   `json:"createdAt"`
	Created     time.Time `json:"created"`
	MetricMode  string    `json:"metricMode"`
	MetricNames []string  `json:"metricNames"`
	Entrypoint  string    `json:"entrypoint,omitempty"`
	Rows        int       `json:"rows"`
	Trials      int       `json:"trials"`
}

// ExperimentDetail is the API response for a single experiment with its
// full metadata document.
type ExperimentDetail struct {
	ExperimentSummary
	Columns  []string         `json:"columns"`
	Metadata *models.Metadata `json:"metadata"`
	State    json.RawMessage  `json:"state,omitempty"`
}

// ResultsPage is one window of an experiment's results table.
type ResultsPage struct {
	Name    string         `json:"name"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
	Total   int            `json:"total"`
	Columns []string       `json:"columns"`
	Rows    *dataset.Table `json:"rows"`
}

// BestResponse is the best observed configuration of an experiment.
type BestResponse struct {
	Name            string                   `json:"name"`
	Metric          string                   `json:"metric"`
	Mode            string                   `json:"mode"`
	Config          aggregate.Config         `json:"config"`
	HyperParameters map[string]dataset.Value `json:"hyperParameters"`
}

// TimeSeriesResponse is the running best of a metric over wallclock time.
type TimeSeriesResponse struct {
	Name   string            `json:"name"`
	Metric string            `json:"metric"`
	Mode   string            `json:"mode"`
	Points []aggregate.Point `json:"points"`
}

// SummaryResponse is the aggregate view over the collection.
type SummaryResponse struct {
	Scanned     int    `json:"scanned"`
	Usable      int    `json:"usable"`
	TotalRows   int    `json:"totalRows"`
	TotalTrials int    `json:"totalTrials"`
	Latest      string `json:"latest,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Summarize flattens exp into its list entry.
func Summarize(exp *models.Experiment) ExperimentSummary {
	s := ExperimentSummary{
		Name:      exp.Name,
		Path:      exp.Path,
		CreatedAt: exp.CreatedAt(),
		Trials:    exp.TrialCount(),
	}
	if t, ok := exp.CreationTime(); ok {
		s.Created = t.UTC()
	}
	if h, err := exp.Header(); err == nil {
		s.MetricMode = string(h.MetricMode)
		s.MetricNames = h.MetricNames
		s.Entrypoint = h.Entrypoint
	}
	if s.MetricNames == nil {
		s.MetricNames = []string{}
	}
	if exp.Results != nil {
		s.Rows = exp.Results.Len()
	}
	return s
}

func toDetail(exp *models.Experiment) *ExperimentDetail {
	d := &ExperimentDetail{
		ExperimentSummary: Summarize(exp),
		Columns:           []string{},
		Metadata:          exp.Metadata,
	}
	if exp.Results != nil {
		d.Columns = exp.Results.Columns()
	}
	if exp.State != nil {
		d.State = exp.State.Raw
	}
	return d
}
