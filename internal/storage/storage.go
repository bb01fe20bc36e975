// Package storage keeps an append-only log of prediction outcomes in a
// BoltDB file. Only outcomes are stored; raw form inputs and feature
// records never reach disk.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	predictionsBucket = "predictions"
	predictionPrefix  = "pred"
	dbFileName        = "restaurant-intel.db"
)

// PredictionRecord is one completed submission.
type PredictionRecord struct {
	ID                string    `json:"id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
	Price             float64   `json:"price"`
	HighlyRated       bool      `json:"highly_rated"`
	UnknownCategories []string  `json:"unknown_categories,omitempty"`
	Backend           string    `json:"backend"`
}

// Store provides persistent storage for prediction outcomes using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, dbFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// predictionKey sorts by time; the bucket sequence breaks ties between
// records written in the same nanosecond.
func predictionKey(ts time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s_%019d_%010d", predictionPrefix, ts.UnixNano(), seq))
}

func boundKey(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%s_%019d", predictionPrefix, ts.UnixNano()))
}

// StorePrediction appends a record. A zero timestamp is replaced by now.
func (s *Store) StorePrediction(record PredictionRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		return b.Put(predictionKey(record.Timestamp, seq), data)
	})
}

// GetPredictions returns records with start <= timestamp <= end, oldest first.
func (s *Store) GetPredictions(start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		// every key with the end timestamp sorts below endKey+"_~"
		endKey := append(boundKey(end), '_', '~')

		for k, v := c.Seek(boundKey(start)); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue // Skip malformed records
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}

// Recent returns up to n records, newest first.
func (s *Store) Recent(n int) ([]PredictionRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	records := make([]PredictionRecord, 0, n)

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < n; k, v = c.Prev() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}
