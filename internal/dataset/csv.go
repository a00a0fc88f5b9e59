package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV parses CSV from r. The first record is the header; cell types
// are inferred with ParseCell.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv: empty input (no header row)")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: header: %w", err)
	}

	t, err := NewTable(header...)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		row := make([]Value, len(record))
		for i, cell := range record {
			row[i] = ParseCell(cell)
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

// WriteCSV writes t with a header row. Null cells are written empty.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.columns); err != nil {
		return fmt.Errorf("csv: writing header: %w", err)
	}

	record := make([]string, len(t.columns))
	for i, row := range t.rows {
		for c, v := range row {
			record[c] = v.String()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("csv: writing row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
