package aggregate

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/tunelab/tunestore/internal/models"
)

// Point is the best value of a metric seen up to Time.
type Point struct {
	Time float64 `json:"time"`
	Best float64 `json:"best"`
}

// TimeSeries returns the running best of metric over wallclock time. Rows
// are ordered by st_tuner_time (stably, so equal times keep table order)
// and scanned with a cumulative min or max per the metric mode. Rows with
// a non-numeric time or metric are left out. An empty metric selects the
// first declared metric.
func TimeSeries(exp *models.Experiment, metric string) ([]Point, error) {
	if exp.Results == nil {
		return nil, &models.PreconditionError{Op: "time series", Experiment: exp.Name, Reason: "results are missing"}
	}
	mode, err := exp.MetricMode()
	if err != nil {
		return nil, err
	}
	if metric == "" {
		names, err := exp.MetricNames()
		if err != nil {
			return nil, err
		}
		metric = names[0]
	}

	times, ok := exp.Results.Column(models.ColumnTime)
	if !ok {
		return nil, &models.PreconditionError{
			Op: "time series", Experiment: exp.Name,
			Reason: fmt.Sprintf("results have no %q column", models.ColumnTime),
		}
	}
	values, ok := exp.Results.Column(metric)
	if !ok {
		return nil, &models.PreconditionError{
			Op: "time series", Experiment: exp.Name,
			Reason: fmt.Sprintf("results have no %q column", metric),
		}
	}

	points := make([]Point, 0, len(times))
	for i := range times {
		t, ok := times[i].Float()
		if !ok {
			continue
		}
		v, ok := values[i].Float()
		if !ok {
			continue
		}
		points = append(points, Point{Time: t, Best: v})
	}
	slices.SortStableFunc(points, func(a, b Point) int { return cmp.Compare(a.Time, b.Time) })

	for i := 1; i < len(points); i++ {
		if !mode.Better(points[i].Best, points[i-1].Best) {
			points[i].Best = points[i-1].Best
		}
	}
	return points, nil
}
