package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/tunelab/tunestore/internal/dataset"
)

// Mode is the optimization direction of a metric.
type Mode string

const (
	ModeMin Mode = "min"
	ModeMax Mode = "max"
)

// Valid reports whether m is min or max.
func (m Mode) Valid() bool {
	return m == ModeMin || m == ModeMax
}

// Better reports whether a strictly improves on b under m.
func (m Mode) Better(a, b float64) bool {
	if m == ModeMax {
		return a > b
	}
	return a < b
}

// MetadataValue is either a scalar or an ordered sequence of scalars.
type MetadataValue struct {
	scalar   dataset.Value
	sequence []dataset.Value
	isSeq    bool
}

// Scalar wraps a single value.
func Scalar(v dataset.Value) MetadataValue {
	return MetadataValue{scalar: v}
}

// Sequence wraps an ordered list of values.
func Sequence(vs ...dataset.Value) MetadataValue {
	seq := make([]dataset.Value, len(vs))
	copy(seq, vs)
	return MetadataValue{sequence: seq, isSeq: true}
}

// IsSequence reports whether mv holds a sequence.
func (mv MetadataValue) IsSequence() bool { return mv.isSeq }

// Scalar returns the scalar held by mv; it is Null for sequences.
func (mv MetadataValue) Scalar() dataset.Value { return mv.scalar }

// Values returns the sequence elements, or the scalar as a one-element slice.
func (mv MetadataValue) Values() []dataset.Value {
	if !mv.isSeq {
		return []dataset.Value{mv.scalar}
	}
	out := make([]dataset.Value, len(mv.sequence))
	copy(out, mv.sequence)
	return out
}

// Len is 1 for scalars and the element count for sequences.
func (mv MetadataValue) Len() int {
	if !mv.isSeq {
		return 1
	}
	return len(mv.sequence)
}

// Equal reports structural equality.
func (mv MetadataValue) Equal(o MetadataValue) bool {
	if mv.isSeq != o.isSeq {
		return false
	}
	if !mv.isSeq {
		return mv.scalar.Equal(o.scalar)
	}
	if len(mv.sequence) != len(o.sequence) {
		return false
	}
	for i := range mv.sequence {
		if !mv.sequence[i].Equal(o.sequence[i]) {
			return false
		}
	}
	return true
}

// Interface returns mv as plain Go data: a scalar or a []any.
func (mv MetadataValue) Interface() any {
	if !mv.isSeq {
		return mv.scalar.Interface()
	}
	out := make([]any, len(mv.sequence))
	for i, v := range mv.sequence {
		out[i] = v.Interface()
	}
	return out
}

func (mv MetadataValue) MarshalJSON() ([]byte, error) {
	if !mv.isSeq {
		return json.Marshal(mv.scalar)
	}
	if mv.sequence == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(mv.sequence)
}

// UnmarshalJSON accepts a scalar or an array. Nested objects and arrays
// are kept as a string scalar holding their compact JSON text.
func (mv *MetadataValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty metadata value")
	}
	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		seq := make([]dataset.Value, 0, len(items))
		for _, item := range items {
			v, err := scalarFromJSON(item)
			if err != nil {
				return err
			}
			seq = append(seq, v)
		}
		*mv = MetadataValue{sequence: seq, isSeq: true}
		return nil
	default:
		v, err := scalarFromJSON(data)
		if err != nil {
			return err
		}
		*mv = MetadataValue{scalar: v}
		return nil
	}
}

func scalarFromJSON(data []byte) (dataset.Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return dataset.Null(), err
		}
		return dataset.Str(buf.String()), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return dataset.Null(), err
	}
	return dataset.FromAny(raw)
}

// Header is the typed view of the fields every valid metadata document has.
type Header struct {
	CreatedAt   float64  `mapstructure:"created_at"`
	MetricMode  Mode     `mapstructure:"metric_mode"`
	MetricNames []string `mapstructure:"metric_names"`
	Entrypoint  string   `mapstructure:"entrypoint"`
}

// Metadata is a flat document of named values. Field order from the
// source document is preserved.
type Metadata struct {
	keys   []string
	fields map[string]MetadataValue
}

// NewMetadata returns an empty document.
func NewMetadata() *Metadata {
	return &Metadata{fields: make(map[string]MetadataValue)}
}

// Set stores a field, appending the key if it is new.
func (m *Metadata) Set(key string, v MetadataValue) {
	if _, ok := m.fields[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.fields[key] = v
}

// Get returns a field.
func (m *Metadata) Get(key string) (MetadataValue, bool) {
	v, ok := m.fields[key]
	return v, ok
}

// Has reports whether the field exists.
func (m *Metadata) Has(key string) bool {
	_, ok := m.fields[key]
	return ok
}

// Keys returns the field names in document order.
func (m *Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of fields.
func (m *Metadata) Len() int { return len(m.keys) }

// Equal reports structural equality including field order.
func (m *Metadata) Equal(o *Metadata) bool {
	if m == nil || o == nil {
		return m == o
	}
	if len(m.keys) != len(o.keys) {
		return false
	}
	for i, k := range m.keys {
		if o.keys[i] != k || !m.fields[k].Equal(o.fields[k]) {
			return false
		}
	}
	return true
}

// Plain returns the document as map[string]any, the shape expected by
// schema validation and mapstructure.
func (m *Metadata) Plain() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.fields[k].Interface()
	}
	return out
}

// CreatedAt returns the numeric creation timestamp, if present.
func (m *Metadata) CreatedAt() (float64, bool) {
	v, ok := m.fields[FieldCreatedAt]
	if !ok || v.IsSequence() {
		return 0, false
	}
	return v.Scalar().Float()
}

// Header decodes the required fields into their typed form.
func (m *Metadata) Header() (Header, error) {
	var h Header
	if err := mapstructure.Decode(m.Plain(), &h); err != nil {
		return Header{}, fmt.Errorf("decoding metadata header: %w", err)
	}
	if !h.MetricMode.Valid() {
		return Header{}, fmt.Errorf("metric_mode %q is not min or max", h.MetricMode)
	}
	if len(h.MetricNames) == 0 {
		return Header{}, errors.New("metric_names is empty")
	}
	return h, nil
}

func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	parsed, err := ParseMetadata(data)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// ParseMetadata decodes a metadata document. Anything but a JSON object
// is rejected with ErrMalformedArtifact.
func ParseMetadata(data []byte) (*Metadata, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: metadata is not a JSON object", ErrMalformedArtifact)
	}

	m := NewMetadata()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", ErrMalformedArtifact, tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformedArtifact, key, err)
		}
		var v MetadataValue
		if err := v.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformedArtifact, key, err)
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after metadata object", ErrMalformedArtifact)
	}
	return m, nil
}

// LoadMetadata reads and parses a metadata file. A missing file wraps
// ErrNotFoundLocally.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFoundLocally)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := ParseMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
