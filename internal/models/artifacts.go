package models

// Artifact file names inside an experiment directory. The results artifact
// has several encodings, listed by dataset.ResultsEncodings.
const (
	MetadataFile = "metadata.json"
	StateFile    = "state.json"
)

// Metadata fields with a defined meaning.
const (
	FieldCreatedAt   = "created_at"
	FieldMetricMode  = "metric_mode"
	FieldMetricNames = "metric_names"
	FieldEntrypoint  = "entrypoint"
)

// Results table columns and column-name conventions.
const (
	// ReservedPrefix marks bookkeeping columns written by the tuner.
	ReservedPrefix = "st_"
	// ConfigPrefix marks hyperparameter columns.
	ConfigPrefix = "config_"

	ColumnTrialID = "trial_id"
	ColumnTime    = "st_tuner_time"

	// ColumnExperimentName labels each row of a merged table.
	ColumnExperimentName = "experiment_name"
)

// Candidate is an experiment found on disk: its name and the directory
// holding its artifacts.
type Candidate struct {
	Name string `json:"name"`
	Dir  string `json:"dir,omitempty"`
}
