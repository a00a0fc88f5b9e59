package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunelab/tunestore/internal/dataset"
	"github.com/tunelab/tunestore/internal/models"
)

func TestExperimentToSlogDebugDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ExperimentToSlog(logger, &models.Experiment{Name: "run-1"})
	assert.Equal(t, 0, buf.Len())
}

func TestExperimentToSlogDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	results, err := dataset.NewTable("trial_id")
	require.NoError(t, err)
	require.NoError(t, results.AppendRow(dataset.Num(0)))

	ExperimentToSlog(logger, &models.Experiment{
		Name:    "run-1",
		Path:    "/data/run-1",
		Results: results,
		State:   &models.State{Name: "asha"},
	})

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "Experiment loaded", logEntry["msg"])
	assert.Equal(t, "run-1", logEntry["name"])
	assert.Equal(t, false, logEntry["usable"])
	assert.Equal(t, float64(1), logEntry["rows"])
	assert.Equal(t, "asha", logEntry["stateName"])
	assert.NotContains(t, logEntry, "metadataFields")
}

func TestAddIf(t *testing.T) {
	attrs := []any{"existing", "value"}

	result := addIf(attrs, "missing", (*int)(nil))
	assert.Equal(t, attrs, result)

	v := 7
	result = addIf(attrs, "number", &v)
	assert.Equal(t, []any{"existing", "value", "number", 7}, result)
}
