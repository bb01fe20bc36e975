package ml

import (
	"context"
	"sync"

	"restaurant-intel/internal/features"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions int
	failures    int
	timeouts    int
	latencySum  float64
	modelAge    float64
}

func (m *MockMetrics) MLPredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLTimeoutsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) MLModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) counts() (predictions, failures, timeouts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions, m.failures, m.timeouts
}

// MockPredictor implements PredictorInterface with a fixed answer.
type MockPredictor struct {
	ModelName string
	Value     float64
	Err       error

	mu    sync.Mutex
	calls int
	last  features.Record
}

func (m *MockPredictor) Name() string { return m.ModelName }

func (m *MockPredictor) Predict(ctx context.Context, rec features.Record) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.last = rec
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.Value, m.Err
}

// Calls returns how many predictions were requested and the last record seen.
func (m *MockPredictor) Calls() (int, features.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, m.last
}

// Fail makes subsequent predictions return err.
func (m *MockPredictor) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}
