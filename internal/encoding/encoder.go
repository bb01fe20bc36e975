// Package encoding maps raw categorical values to the integer codes the
// trained models were fitted with.
//
// Each categorical column has a fixed vocabulary exported from the
// training-time label encoders. A value's code is its index in the
// exported class list. Values that were never seen during training are
// mapped to the sentinel code 0, which the models cannot tell apart from a
// real class encoded as 0.
package encoding

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"restaurant-intel/internal/common"
)

// Sentinel is the code returned for values absent from a vocabulary.
const Sentinel = 0

var (
	ErrMissingColumn   = errors.New("encoder file is missing a categorical column")
	ErrDuplicateClass  = errors.New("duplicate class in vocabulary")
	ErrUnknownColumn   = errors.New("unknown categorical column")
	ErrEmptyVocabulary = errors.New("vocabulary has no classes")
)

// Vocabulary is the read-only class table of one categorical column.
type Vocabulary struct {
	column  string
	classes []string
	codes   map[string]int
}

// NewVocabulary builds a vocabulary where each class is coded by its index.
func NewVocabulary(column string, classes []string) (*Vocabulary, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("%s: %w", column, ErrEmptyVocabulary)
	}

	v := &Vocabulary{
		column:  column,
		classes: append([]string(nil), classes...),
		codes:   make(map[string]int, len(classes)),
	}
	for i, c := range classes {
		if _, dup := v.codes[c]; dup {
			return nil, fmt.Errorf("%s: %q: %w", column, c, ErrDuplicateClass)
		}
		v.codes[c] = i
	}
	return v, nil
}

// Column returns the column this vocabulary encodes.
func (v *Vocabulary) Column() string { return v.column }

// Len returns the number of known classes.
func (v *Vocabulary) Len() int { return len(v.classes) }

// Classes returns a copy of the known classes in code order.
func (v *Vocabulary) Classes() []string {
	return append([]string(nil), v.classes...)
}

// Lookup returns the code for value and whether it was known.
func (v *Vocabulary) Lookup(value string) (int, bool) {
	code, ok := v.codes[value]
	if !ok {
		return Sentinel, false
	}
	return code, true
}

// Encoders holds one vocabulary per categorical column. It is immutable
// after construction and safe for concurrent use.
type Encoders struct {
	vocabs map[string]*Vocabulary
}

// New builds encoders from a column -> classes table. Every categorical
// column must be present.
func New(table map[string][]string) (*Encoders, error) {
	e := &Encoders{vocabs: make(map[string]*Vocabulary, len(common.CategoricalColumns))}
	for _, col := range common.CategoricalColumns {
		classes, ok := table[col]
		if !ok {
			return nil, fmt.Errorf("%s: %w", col, ErrMissingColumn)
		}
		v, err := NewVocabulary(col, classes)
		if err != nil {
			return nil, err
		}
		e.vocabs[col] = v
	}
	return e, nil
}

// Load reads encoders from a JSON file shaped as {"Column": ["class", ...]}.
func Load(path string) (*Encoders, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoders %s: %w", path, err)
	}

	var table map[string][]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse encoders %s: %w", path, err)
	}

	return New(table)
}

// Encode returns the code of value in column, or Sentinel when either the
// value or the column is unknown. It never fails.
func (e *Encoders) Encode(column, value string) int {
	code, _ := e.Lookup(column, value)
	return code
}

// Lookup is Encode plus a flag reporting whether the value was known.
func (e *Encoders) Lookup(column, value string) (int, bool) {
	v, ok := e.vocabs[column]
	if !ok {
		return Sentinel, false
	}
	return v.Lookup(value)
}

// Vocabulary returns the table for column.
func (e *Encoders) Vocabulary(column string) (*Vocabulary, error) {
	v, ok := e.vocabs[column]
	if !ok {
		return nil, fmt.Errorf("%s: %w", column, ErrUnknownColumn)
	}
	return v, nil
}
