package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrColumnMismatch = errors.New("model feature columns do not match the record layout")

// ModelMetadata contains information about a trained model, read from
// "<model>.meta.json" next to the artifact.
type ModelMetadata struct {
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	Features     []string  `json:"features"`
	Target       string    `json:"target"`
	Score        float64   `json:"score"`
	TrainingRows int       `json:"training_rows"`
}

// metadataPath maps "dir/price_predictor.pkl" to "dir/price_predictor.meta.json".
func metadataPath(modelPath string) string {
	return filepath.Join(filepath.Dir(modelPath), modelName(modelPath)+".meta.json")
}

// loadModelMetadata returns nil without error when the model has no
// metadata file.
func loadModelMetadata(modelPath string) (*ModelMetadata, error) {
	path := metadataPath(modelPath)
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open model metadata: %w", err)
	}
	defer file.Close()

	var md ModelMetadata
	if err := json.NewDecoder(file).Decode(&md); err != nil {
		return nil, fmt.Errorf("failed to decode model metadata %s: %w", path, err)
	}
	return &md, nil
}

// CheckColumns compares the training feature list with columns, name by
// name and in order. An empty feature list is not checked.
func (md *ModelMetadata) CheckColumns(columns []string) error {
	if md == nil || len(md.Features) == 0 {
		return nil
	}
	if len(md.Features) != len(columns) {
		return fmt.Errorf("%w: model has %d features, record has %d",
			ErrColumnMismatch, len(md.Features), len(columns))
	}
	for i := range columns {
		if md.Features[i] != columns[i] {
			return fmt.Errorf("%w: position %d is %q, record has %q",
				ErrColumnMismatch, i, md.Features[i], columns[i])
		}
	}
	return nil
}

// String summarises the metadata for log lines.
func (md *ModelMetadata) String() string {
	if md == nil {
		return "none"
	}
	parts := []string{"version=" + md.Version}
	if !md.TrainedAt.IsZero() {
		parts = append(parts, "trained_at="+md.TrainedAt.Format(time.RFC3339))
	}
	if md.Target != "" {
		parts = append(parts, "target="+md.Target)
	}
	return strings.Join(parts, " ")
}
