// Package aggregate derives tabular views from loaded experiments.
package aggregate

import (
	"fmt"
	"log/slog"

	"github.com/tunelab/tunestore/internal/dataset"
	"github.com/tunelab/tunestore/internal/models"
)

// Column is one derived column with a constant value.
type Column struct {
	Name  string
	Value dataset.Value
}

// MetadataColumns expands metadata into constant columns, in field order.
// Scalars map to a column of the same name. A sequence of one element
// collapses to that element; longer sequences become <field>-<index>
// columns. Empty sequences contribute nothing.
func MetadataColumns(m *models.Metadata) []Column {
	var out []Column
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		if !v.IsSequence() {
			out = append(out, Column{Name: key, Value: v.Scalar()})
			continue
		}
		vals := v.Values()
		switch len(vals) {
		case 0:
		case 1:
			out = append(out, Column{Name: key, Value: vals[0]})
		default:
			for i, x := range vals {
				out = append(out, Column{Name: fmt.Sprintf("%s-%d", key, i), Value: x})
			}
		}
	}
	return out
}

// Merge concatenates the results of every experiment into one table. Each
// row gains an experiment_name column and the experiment's metadata
// columns, which take precedence over result columns of the same name.
// The column set is the union in first-seen order; cells an experiment
// does not define are Null.
//
// Every experiment must be usable; otherwise a *models.PreconditionError
// is returned and nothing is merged.
func Merge(exps []*models.Experiment) (*dataset.Table, error) {
	for _, e := range exps {
		switch {
		case e.Results == nil:
			return nil, &models.PreconditionError{Op: "merge", Experiment: e.Name, Reason: "results are missing"}
		case e.Metadata == nil:
			return nil, &models.PreconditionError{Op: "merge", Experiment: e.Name, Reason: "metadata is missing"}
		}
	}

	out, _ := dataset.NewTable()
	for _, e := range exps {
		derived := []Column{{Name: models.ColumnExperimentName, Value: dataset.Str(e.Name)}}
		for _, c := range MetadataColumns(e.Metadata) {
			if c.Name == models.ColumnExperimentName {
				slog.Debug("metadata field shadows the experiment name column; ignoring it", "experiment", e.Name)
				continue
			}
			derived = append(derived, c)
		}

		columns := e.Results.Columns()
		for _, c := range columns {
			out.AddColumn(c)
		}
		for _, d := range derived {
			out.AddColumn(d.Name)
		}

		for i := range e.Results.Len() {
			rec := make(dataset.Row, len(columns)+len(derived))
			for _, c := range columns {
				rec[c] = e.Results.Value(i, c)
			}
			for _, d := range derived {
				rec[d.Name] = d.Value
			}
			out.AppendRecord(rec)
		}
	}
	return out, nil
}
