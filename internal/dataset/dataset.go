// Package dataset loads labeled fitness cases, typically from CSV files
// whose columns are the feature values followed by one or more targets.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/exp/constraints"

	"lgp/internal/errors"
)

// Case is one labeled input: a feature vector and its target values. A
// single-output problem has one target; multi-output problems have one per
// output register.
type Case[V constraints.Float] struct {
	Features []V
	Target   []V
}

// Dataset is an ordered collection of fitness cases with a fixed shape.
type Dataset[V constraints.Float] struct {
	Cases       []Case[V]
	NumFeatures int
	NumTargets  int
}

// New builds a dataset from explicit cases, validating the shape.
func New[V constraints.Float](numFeatures, numTargets int, cases []Case[V]) (*Dataset[V], error) {
	for _, c := range cases {
		if len(c.Features) != numFeatures {
			return nil, &errors.RowShapeError{Want: numFeatures, Got: len(c.Features)}
		}
		if len(c.Target) != numTargets {
			return nil, fmt.Errorf("case has %d target(s), dataset expects %d", len(c.Target), numTargets)
		}
	}
	return &Dataset[V]{Cases: cases, NumFeatures: numFeatures, NumTargets: numTargets}, nil
}

// FromCSV reads cases from CSV. Each record holds numFeatures feature
// columns followed by the target column(s); column order is significant. A
// non-numeric first record is treated as a header and skipped.
func FromCSV[V constraints.Float](r io.Reader, numFeatures int) (*Dataset[V], error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty dataset")
	}
	if isHeader(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset has a header but no rows")
	}

	numTargets := len(records[0]) - numFeatures
	if numTargets < 1 {
		return nil, &errors.RowShapeError{Want: numFeatures + 1, Got: len(records[0])}
	}

	d := &Dataset[V]{NumFeatures: numFeatures, NumTargets: numTargets}
	for rowNo, record := range records {
		if len(record) != numFeatures+numTargets {
			return nil, &errors.RowShapeError{Want: numFeatures + numTargets, Got: len(record)}
		}
		c := Case[V]{
			Features: make([]V, numFeatures),
			Target:   make([]V, numTargets),
		}
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", rowNo+1, i+1, err)
			}
			if i < numFeatures {
				c.Features[i] = V(v)
			} else {
				c.Target[i-numFeatures] = V(v)
			}
		}
		d.Cases = append(d.Cases, c)
	}
	return d, nil
}

func isHeader(record []string) bool {
	for _, field := range record {
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			return true
		}
	}
	return false
}
