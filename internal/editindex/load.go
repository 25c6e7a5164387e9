package editindex

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"edlmatch/internal/failure"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads a CSV file with a header row into a Batch. Rows shorter than the
// header are padded with empty values; extra trailing fields are dropped.
func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.Wrap(failure.ErrNotFound, "load", "read csv", path, err)
		}
		return nil, failure.Wrap(failure.ErrValidation, "load", "read csv", path, err)
	}
	batch, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, failure.Wrap(failure.ErrValidation, "load", "parse csv", path, err)
	}
	batch.Path = path
	return batch, nil
}

// Parse decodes CSV content from r. The returned batch has no path.
func Parse(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Batch{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	batch := &Batch{}
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+1, err)
		}
		line++
		batch.Records = append(batch.Records, NewRecord(line, columns, row))
	}
	return batch, nil
}
