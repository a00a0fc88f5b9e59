package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/tunelab/tunestore/internal/dataset"
)

// Experiment is one resolved experiment. Metadata, Results and State are
// nil when the artifact was absent or could not be parsed.
type Experiment struct {
	Name     string         `json:"name"`
	Path     string         `json:"path"`
	Metadata *Metadata      `json:"metadata"`
	Results  *dataset.Table `json:"-"`
	State    *State         `json:"state,omitempty"`
}

// Usable reports whether both metadata and results were loaded.
func (e *Experiment) Usable() bool {
	return e.Metadata != nil && e.Results != nil
}

// CreatedAt returns the creation timestamp in seconds, or 0 when unknown.
func (e *Experiment) CreatedAt() float64 {
	if e.Metadata == nil {
		return 0
	}
	ts, _ := e.Metadata.CreatedAt()
	return ts
}

// CreationTime returns the creation timestamp as a time.Time.
func (e *Experiment) CreationTime() (time.Time, bool) {
	if e.Metadata == nil {
		return time.Time{}, false
	}
	ts, ok := e.Metadata.CreatedAt()
	if !ok {
		return time.Time{}, false
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

// Header returns the typed metadata header.
func (e *Experiment) Header() (Header, error) {
	if e.Metadata == nil {
		return Header{}, &PreconditionError{Op: "header", Experiment: e.Name, Reason: "metadata is missing"}
	}
	h, err := e.Metadata.Header()
	if err != nil {
		return Header{}, &PreconditionError{Op: "header", Experiment: e.Name, Reason: err.Error()}
	}
	return h, nil
}

// MetricMode returns the declared optimization direction.
func (e *Experiment) MetricMode() (Mode, error) {
	h, err := e.Header()
	return h.MetricMode, err
}

// MetricNames returns the declared metric names.
func (e *Experiment) MetricNames() ([]string, error) {
	h, err := e.Header()
	return h.MetricNames, err
}

// Entrypoint returns the provenance entrypoint, empty when not recorded.
func (e *Experiment) Entrypoint() string {
	h, _ := e.Header()
	return h.Entrypoint
}

// TrialCount returns the number of distinct trial ids in the results.
func (e *Experiment) TrialCount() int {
	if e.Results == nil {
		return 0
	}
	col, ok := e.Results.Column(ColumnTrialID)
	if !ok {
		return 0
	}
	seen := make(map[string]struct{}, len(col))
	for _, v := range col {
		if v.IsNull() {
			continue
		}
		seen[v.String()] = struct{}{}
	}
	return len(seen)
}

func (e *Experiment) String() string {
	s := fmt.Sprintf("Experiment %s", e.Name)
	if e.Results != nil {
		s += fmt.Sprintf(" contains %d evaluations from %d trials", e.Results.Len(), e.TrialCount())
	}
	return s
}

// State is the run-state artifact. Only the optional name is interpreted;
// everything else is kept verbatim.
type State struct {
	Name string          `json:"name,omitempty"`
	Raw  json.RawMessage `json:"-"`
}

// ParseState decodes a run-state document. It must be a JSON object; a
// present name must be a string.
func ParseState(data []byte) (*State, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: state: %v", ErrMalformedArtifact, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: state is null", ErrMalformedArtifact)
	}

	st := &State{Raw: json.RawMessage(bytes.Clone(data))}
	if raw, ok := doc["name"]; ok {
		if err := json.Unmarshal(raw, &st.Name); err != nil {
			return nil, fmt.Errorf("%w: state name: %v", ErrMalformedArtifact, err)
		}
	}
	return st, nil
}

// LoadState reads and parses a run-state file.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFoundLocally)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	st, err := ParseState(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}
