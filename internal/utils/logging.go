package utils

import (
	"context"
	"log/slog"

	"github.com/tunelab/tunestore/internal/models"
)

// ExperimentToSlog logs a one-line debug summary of a loaded experiment.
func ExperimentToSlog(logger *slog.Logger, exp *models.Experiment) {
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{
		"name", exp.Name,
		"path", exp.Path,
		"usable", exp.Usable(),
	}

	var rows, fields *int
	var stateName *string
	if exp.Results != nil {
		rows = Ptr(exp.Results.Len())
	}
	if exp.Metadata != nil {
		fields = Ptr(exp.Metadata.Len())
	}
	if exp.State != nil && exp.State.Name != "" {
		stateName = &exp.State.Name
	}

	attrs = addIf(attrs, "rows", rows)
	attrs = addIf(attrs, "metadataFields", fields)
	attrs = addIf(attrs, "stateName", stateName)

	logger.Debug("Experiment loaded", attrs...)
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name)
		attrs = append(attrs, *v)
	}

	return attrs
}
