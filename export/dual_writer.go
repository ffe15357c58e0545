package export

import (
	"errors"
	"fmt"
	"sync"
)

// DualWriter writes the same records to CSV and JSONL.
type DualWriter[T any] struct {
	csv  *CSVWriter[T]
	json *JSONWriter[T]
	mu   sync.Mutex
}

// NewDualWriter opens both outputs; if the second fails the first is closed.
func NewDualWriter[T any](csvFilename, jsonFilename string, schema Schema[T]) (*DualWriter[T], error) {
	csvWriter, err := NewCSVWriter(csvFilename, schema)
	if err != nil {
		return nil, fmt.Errorf("create csv writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter[T](jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("create json writer: %w", err)
	}

	return &DualWriter[T]{csv: csvWriter, json: jsonWriter}, nil
}

func (dw *DualWriter[T]) Write(records []T) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.csv.Write(records); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	if err := dw.json.Write(records); err != nil {
		return fmt.Errorf("json write: %w", err)
	}
	return nil
}

// Close closes both writers and reports every failure.
func (dw *DualWriter[T]) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	var errs []error
	if err := dw.csv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("csv close: %w", err))
	}
	if err := dw.json.Close(); err != nil {
		errs = append(errs, fmt.Errorf("json close: %w", err))
	}
	return errors.Join(errs...)
}

func (dw *DualWriter[T]) Validate() error {
	return errors.Join(dw.csv.Validate(), dw.json.Validate())
}
