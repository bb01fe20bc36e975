package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"restaurant-intel/internal/features"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const helperScriptName = "restaurant_intel_helper.py"

var ErrNonFiniteFeature = errors.New("feature value is not finite")

// PredictorConfig holds the settings of a subprocess predictor.
type PredictorConfig struct {
	Name       string
	ModelPath  string
	PythonPath string // discovered when empty
	Timeout    time.Duration
	RateLimit  float64 // process spawns per second, 0 for unlimited
}

// Predictor runs a joblib model through the helper script, one Python
// process per prediction.
type Predictor struct {
	name          string
	modelPath     string
	pythonPath    string
	scriptPath    string
	timeout       time.Duration
	limiter       *rate.Limiter
	modelCreated  time.Time
	metadata      *ModelMetadata
	metrics       MetricsInterface
	mu            sync.RWMutex
	lastUsed      time.Time
	healthChecked time.Time
}

// NewPredictor verifies the model file, prepares the helper script and
// runs one health check prediction. Any failure is returned; there is no
// degraded mode.
func NewPredictor(ctx context.Context, config PredictorConfig, metrics MetricsInterface) (*Predictor, error) {
	info, err := os.Stat(config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", config.ModelPath, err)
	}

	name := config.Name
	if name == "" {
		name = modelName(config.ModelPath)
	}

	md, err := loadModelMetadata(config.ModelPath)
	if err != nil {
		return nil, err
	}
	if md != nil {
		if err := md.CheckColumns(features.Columns()); err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
	}

	pythonPath := config.PythonPath
	if pythonPath == "" {
		if pythonPath, err = findPython(); err != nil {
			return nil, err
		}
	}

	scriptPath, err := ensureHelperScript(filepath.Dir(config.ModelPath))
	if err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	p := &Predictor{
		name:         name,
		modelPath:    config.ModelPath,
		pythonPath:   pythonPath,
		scriptPath:   scriptPath,
		timeout:      timeout,
		limiter:      newLimiter(config.RateLimit),
		modelCreated: info.ModTime(),
		metadata:     md,
		metrics:      metrics,
	}

	if err := p.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("model %s health check failed: %w", name, err)
	}

	if p.metrics != nil {
		p.metrics.MLModelAgeSet(time.Since(p.modelCreated).Seconds())
	}

	log.Info().
		Str("model", name).
		Str("model_path", config.ModelPath).
		Str("python_path", pythonPath).
		Stringer("metadata", md).
		Msg("Model loaded successfully")

	return p, nil
}

func (p *Predictor) Name() string { return p.name }

// Metadata returns the model's metadata file contents, or nil when the
// model ships without one.
func (p *Predictor) Metadata() *ModelMetadata { return p.metadata }

// LastUsed reports when the last successful prediction finished.
func (p *Predictor) LastUsed() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastUsed
}

// Predict runs the model on one record.
func (p *Predictor) Predict(ctx context.Context, rec features.Record) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("predictor is nil")
	}

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	out, err := p.predictInternal(ctx, rec)
	if err != nil {
		if p.metrics != nil {
			p.metrics.MLFailuresInc()
		}
		return 0, err
	}

	if p.metrics != nil {
		p.metrics.MLPredictionsInc()
	}

	p.mu.Lock()
	p.lastUsed = time.Now()
	p.mu.Unlock()

	return out, nil
}

func (p *Predictor) predictInternal(ctx context.Context, rec features.Record) (float64, error) {
	req := newInferenceRequest(rec)
	for i, v := range req.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s: %w", req.Columns[i], ErrNonFiniteFeature)
		}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("waiting for inference slot: %w", err)
		}
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.pythonPath, p.scriptPath, "predict", p.modelPath)
	cmd.Stdin = bytes.NewReader(reqJSON)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error().
			Err(err).
			Str("model", p.name).
			Str("python_path", p.pythonPath).
			Str("script_path", p.scriptPath).
			Str("stderr", stderr.String()).
			Str("stdout", stdout.String()).
			Dur("timeout", p.timeout).
			Bool("context_cancelled", ctx.Err() != nil).
			Msg("Python inference execution failed")

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.mu.Lock()
			p.healthChecked = time.Time{}
			p.mu.Unlock()
			if p.metrics != nil {
				p.metrics.MLTimeoutsInc()
			}
			return 0, fmt.Errorf("prediction timeout after %v: %w", p.timeout, ctx.Err())
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		// The helper reports its own failures as JSON on stdout.
		if resp, perr := parseResponse(stdout.Bytes()); perr == nil && resp.Error != "" {
			return 0, fmt.Errorf("python inference error: %s", resp.Error)
		}
		return 0, fmt.Errorf("python inference failed: %w, stderr: %s", err, stderr.String())
	}

	resp, err := parseResponse(stdout.Bytes())
	if err != nil {
		log.Error().
			Err(err).
			Str("model", p.name).
			Str("stdout", stdout.String()).
			Str("stderr", stderr.String()).
			Msg("Failed to parse prediction response")
		return 0, err
	}
	if resp.Error != "" {
		log.Error().
			Str("model", p.name).
			Str("python_error", resp.Error).
			Msg("Python inference returned error")
		return 0, fmt.Errorf("python inference error: %s", resp.Error)
	}

	log.Debug().
		Str("model", p.name).
		Float64("prediction", *resp.Prediction).
		Msg("Prediction successful")

	return *resp.Prediction, nil
}

func parseResponse(data []byte) (*inferenceResponse, error) {
	var resp inferenceResponse
	if err := json.Unmarshal(bytes.TrimSpace(data), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, stdout: %s", err, string(data))
	}
	if resp.Error == "" && resp.Prediction == nil {
		return nil, fmt.Errorf("response carries neither prediction nor error")
	}
	if resp.Prediction != nil && (math.IsNaN(*resp.Prediction) || math.IsInf(*resp.Prediction, 0)) {
		return nil, fmt.Errorf("model returned a non-finite prediction")
	}
	return &resp, nil
}

// HealthCheck predicts once on an all-zero record.
func (p *Predictor) HealthCheck(ctx context.Context) error {
	p.mu.RLock()
	recent := time.Since(p.healthChecked) < 5*time.Minute
	p.mu.RUnlock()
	if recent {
		return nil
	}

	if _, err := p.predictInternal(ctx, features.Record{}); err != nil {
		return err
	}

	p.mu.Lock()
	p.healthChecked = time.Now()
	p.mu.Unlock()
	return nil
}

// newLimiter returns nil for a non-positive rate.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(math.Ceil(perSecond))
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// modelName turns "models/price_predictor.pkl" into "price_predictor".
func modelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

const pythonProbe = "import sys, joblib, pandas; print('Python', sys.version)"

func findPython() (string, error) {
	// First try to find virtual environment Python
	if venvPath := os.Getenv("VIRTUAL_ENV"); venvPath != "" {
		candidates := []string{
			filepath.Join(venvPath, "bin", "python3"),
			filepath.Join(venvPath, "bin", "python"),
			filepath.Join(venvPath, "Scripts", "python.exe"),
		}
		if path, ok := firstUsablePython(candidates); ok {
			log.Info().Str("python_path", path).Msg("Using virtual environment Python")
			return path, nil
		}
	}

	// Try to find venv relative to executable location
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		var candidates []string
		for _, root := range []string{execDir, filepath.Dir(execDir), filepath.Dir(filepath.Dir(execDir))} {
			candidates = append(candidates,
				filepath.Join(root, "venv", "bin", "python3"),
				filepath.Join(root, ".venv", "bin", "python3"),
				filepath.Join(root, "venv", "Scripts", "python.exe"),
			)
		}
		if path, ok := firstUsablePython(candidates); ok {
			log.Info().Str("python_path", path).Msg("Using project virtual environment Python")
			return path, nil
		}
	}

	var candidates []string
	for _, name := range []string{"python3", "python", "python3.12", "python3.11", "python3.10"} {
		if path, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, path)
		}
	}
	if path, ok := firstUsablePython(candidates); ok {
		log.Info().Str("python_path", path).Msg("Using system Python")
		return path, nil
	}

	return "", fmt.Errorf("no Python 3 with joblib and pandas found; set PYTHON_PATH")
}

func firstUsablePython(candidates []string) (string, bool) {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		out, err := exec.Command(path, "-c", pythonProbe).Output()
		if err == nil && strings.Contains(string(out), "Python 3") {
			return path, true
		}
	}
	return "", false
}
