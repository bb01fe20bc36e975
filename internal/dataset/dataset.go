// Package dataset reads the reference dataset that supplies the dropdown
// choices for each categorical field of the form.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"restaurant-intel/internal/common"

	"github.com/rs/zerolog/log"
)

var ErrMissingColumn = errors.New("dataset is missing a categorical column")

// Options holds the sorted unique values of each categorical column.
// It is read once at startup and never modified.
type Options struct {
	values map[string][]string
	rows   int
}

// Load reads the CSV at path.
func Load(path string) (*Options, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	opts, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("rows", opts.rows).
		Msg("Reference dataset loaded")

	return opts, nil
}

// Read extracts options from CSV data with a header row.
func Read(r io.Reader) (*Options, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Map header indices
	indices := make(map[string]int)
	for i, col := range header {
		indices[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range common.CategoricalColumns {
		if _, ok := indices[col]; !ok {
			return nil, fmt.Errorf("%s: %w", col, ErrMissingColumn)
		}
	}

	seen := make(map[string]map[string]struct{}, len(common.CategoricalColumns))
	for _, col := range common.CategoricalColumns {
		seen[col] = make(map[string]struct{})
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", rows+2, err)
		}
		rows++

		for _, col := range common.CategoricalColumns {
			idx := indices[col]
			if idx >= len(record) {
				continue
			}
			if v := record[idx]; !isNull(v) {
				seen[col][v] = struct{}{}
			}
		}
	}

	opts := &Options{values: make(map[string][]string, len(seen)), rows: rows}
	for col, set := range seen {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		opts.values[col] = values
	}
	return opts, nil
}

// isNull matches what pandas treats as missing in a string column.
func isNull(v string) bool {
	switch v {
	case "", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
		"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a",
		"nan", "null":
		return true
	}
	return false
}

// Values returns a copy of the choices for column, or nil for an unknown column.
func (o *Options) Values(column string) []string {
	v, ok := o.values[column]
	if !ok {
		return nil
	}
	return append([]string(nil), v...)
}

// All returns a copy of every column's choices.
func (o *Options) All() map[string][]string {
	out := make(map[string][]string, len(o.values))
	for col := range o.values {
		out[col] = o.Values(col)
	}
	return out
}

// Rows returns the number of data rows read.
func (o *Options) Rows() int { return o.rows }
