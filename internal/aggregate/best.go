package aggregate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tunelab/tunestore/internal/dataset"
	"github.com/tunelab/tunestore/internal/models"
)

// Config is one results row keyed by column name.
type Config map[string]dataset.Value

// BestConfig returns the row that is best for the experiment's first
// declared metric, without reserved st_ fields. Several declared metrics
// make "best" ambiguous; this is logged as a warning and only the first
// is used.
func BestConfig(exp *models.Experiment) (Config, error) {
	names, err := exp.MetricNames()
	if err != nil {
		return nil, err
	}
	if len(names) > 1 {
		slog.Warn("several metrics declared; best config uses the first one",
			"experiment", exp.Name, "metrics", names, "used", names[0])
	}
	return BestConfigWith(exp, names[0])
}

// BestConfigWith returns the best row for metric under the experiment's
// metric mode. Rows whose metric cell is not numeric are skipped. On ties
// the first such row in table order wins.
func BestConfigWith(exp *models.Experiment, metric string) (Config, error) {
	if exp.Results == nil {
		return nil, &models.PreconditionError{Op: "best config", Experiment: exp.Name, Reason: "results are missing"}
	}
	mode, err := exp.MetricMode()
	if err != nil {
		return nil, err
	}
	col, ok := exp.Results.Column(metric)
	if !ok {
		return nil, &models.PreconditionError{
			Op: "best config", Experiment: exp.Name,
			Reason: fmt.Sprintf("results have no %q column", metric),
		}
	}

	best := -1
	var bestVal float64
	for i, v := range col {
		f, ok := v.Float()
		if !ok {
			continue
		}
		if best < 0 || mode.Better(f, bestVal) {
			best, bestVal = i, f
		}
	}
	if best < 0 {
		return nil, &models.PreconditionError{
			Op: "best config", Experiment: exp.Name,
			Reason: fmt.Sprintf("no numeric values for %q", metric),
		}
	}

	out := make(Config)
	for k, v := range exp.Results.Record(best) {
		if strings.HasPrefix(k, models.ReservedPrefix) {
			continue
		}
		out[k] = v
	}
	return out, nil
}

// HyperParameters returns the config_ fields of cfg with the prefix removed.
func HyperParameters(cfg Config) map[string]dataset.Value {
	out := make(map[string]dataset.Value)
	for k, v := range cfg {
		if name, ok := strings.CutPrefix(k, models.ConfigPrefix); ok && name != "" {
			out[name] = v
		}
	}
	return out
}
