package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults with no environment",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.PriceModelPath != "price_predictor.pkl" {
					t.Errorf("expected default PriceModelPath, got %s", settings.PriceModelPath)
				}
				if settings.RatingModelPath != "rating_classifier.pkl" {
					t.Errorf("expected default RatingModelPath, got %s", settings.RatingModelPath)
				}
				if settings.EncodersPath != "label_encoders.pkl" {
					t.Errorf("expected default EncodersPath, got %s", settings.EncodersPath)
				}
				if settings.DatasetPath != "enhanced_zomato_dataset_clean.csv" {
					t.Errorf("expected default DatasetPath, got %s", settings.DatasetPath)
				}
				if settings.InferenceBackend != "subprocess" {
					t.Errorf("expected default backend subprocess, got %s", settings.InferenceBackend)
				}
				if settings.InferenceTimeout != 10*time.Second {
					t.Errorf("expected default InferenceTimeout 10s, got %v", settings.InferenceTimeout)
				}
				if settings.HTTPPort != 8501 {
					t.Errorf("expected default HTTPPort 8501, got %d", settings.HTTPPort)
				}
				if settings.Currency != "₹" {
					t.Errorf("expected default currency ₹, got %s", settings.Currency)
				}
				if settings.DataPath != "" {
					t.Errorf("expected empty DataPath, got %s", settings.DataPath)
				}
				if len(settings.AllowedOrigins) != 0 {
					t.Errorf("expected no allowed origins, got %v", settings.AllowedOrigins)
				}
				if settings.InferenceRate != 0 {
					t.Errorf("expected unlimited inference rate, got %v", settings.InferenceRate)
				}
			},
		},
		{
			name: "custom paths and http backend",
			envVars: map[string]string{
				"PRICE_MODEL_PATH":     "/models/price.pkl",
				"RATING_MODEL_PATH":    "/models/rating.pkl",
				"ENCODERS_PATH":        "/models/encoders.json",
				"DATASET_PATH":         "/data/zomato.csv",
				"INFERENCE_BACKEND":    "http",
				"INFERENCE_URL":        "http://localhost:9000",
				"INFERENCE_TIMEOUT":    "30s",
				"INFERENCE_RATE_LIMIT": "2.5",
				"HTTP_PORT":            "9090",
				"DATA_PATH":            "/var/lib/restaurant-intel",
				"CURRENCY":             "$",
				"ALLOWED_ORIGINS":      "http://localhost:3000, http://localhost:5173",
				"LOG_LEVEL":            "debug",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.PriceModelPath != "/models/price.pkl" {
					t.Errorf("expected PriceModelPath '/models/price.pkl', got %s", settings.PriceModelPath)
				}
				if settings.EncodersPath != "/models/encoders.json" {
					t.Errorf("expected EncodersPath '/models/encoders.json', got %s", settings.EncodersPath)
				}
				if settings.InferenceBackend != "http" {
					t.Errorf("expected backend http, got %s", settings.InferenceBackend)
				}
				if settings.InferenceURL != "http://localhost:9000" {
					t.Errorf("expected InferenceURL, got %s", settings.InferenceURL)
				}
				if settings.InferenceTimeout != 30*time.Second {
					t.Errorf("expected InferenceTimeout 30s, got %v", settings.InferenceTimeout)
				}
				if settings.InferenceRate != 2.5 {
					t.Errorf("expected InferenceRate 2.5, got %v", settings.InferenceRate)
				}
				if settings.HTTPPort != 9090 {
					t.Errorf("expected HTTPPort 9090, got %d", settings.HTTPPort)
				}
				if settings.Currency != "$" {
					t.Errorf("expected currency $, got %s", settings.Currency)
				}
				expected := []string{"http://localhost:3000", "http://localhost:5173"}
				if len(settings.AllowedOrigins) != len(expected) {
					t.Fatalf("expected %d origins, got %v", len(expected), settings.AllowedOrigins)
				}
				for i, o := range expected {
					if settings.AllowedOrigins[i] != o {
						t.Errorf("expected origin %s at index %d, got %s", o, i, settings.AllowedOrigins[i])
					}
				}
			},
		},
		{
			name: "http backend without url",
			envVars: map[string]string{
				"INFERENCE_BACKEND": "http",
			},
			wantErr: true,
		},
		{
			name: "unknown backend",
			envVars: map[string]string{
				"INFERENCE_BACKEND": "grpc",
			},
			wantErr: true,
		},
		{
			name: "negative rate limit",
			envVars: map[string]string{
				"INFERENCE_RATE_LIMIT": "-1",
			},
			wantErr: true,
		},
		{
			name: "port out of range",
			envVars: map[string]string{
				"HTTP_PORT": "80",
			},
			wantErr: true,
		},
		{
			name: "unparseable timeout falls back to default",
			envVars: map[string]string{
				"INFERENCE_TIMEOUT": "soon",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.InferenceTimeout != 10*time.Second {
					t.Errorf("expected default InferenceTimeout 10s, got %v", settings.InferenceTimeout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear all environment variables first
			clearTestEnv(t)

			// Set test environment variables
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
models:
  priceModelPath: "artifacts/price.pkl"
  ratingModelPath: "artifacts/rating.pkl"
  encodersPath: "artifacts/label_encoders.json"

dataset:
  path: "data/zomato.csv"

inference:
  backend: "subprocess"
  pythonPath: "/opt/venv/bin/python3"
  timeout: "20s"
  rateLimit: 4

server:
  port: 8600
  currency: "Rs."
  allowedOrigins:
    - "http://localhost:3000"

system:
  dataPath: "/custom/data"
  logLevel: "warn"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.PriceModelPath != "artifacts/price.pkl" {
					t.Errorf("expected PriceModelPath 'artifacts/price.pkl', got %s", settings.PriceModelPath)
				}
				if settings.EncodersPath != "artifacts/label_encoders.json" {
					t.Errorf("expected EncodersPath, got %s", settings.EncodersPath)
				}
				if settings.DatasetPath != "data/zomato.csv" {
					t.Errorf("expected DatasetPath 'data/zomato.csv', got %s", settings.DatasetPath)
				}
				if settings.PythonPath != "/opt/venv/bin/python3" {
					t.Errorf("expected PythonPath, got %s", settings.PythonPath)
				}
				if settings.InferenceTimeout != 20*time.Second {
					t.Errorf("expected InferenceTimeout 20s, got %v", settings.InferenceTimeout)
				}
				if settings.InferenceRate != 4 {
					t.Errorf("expected InferenceRate 4, got %v", settings.InferenceRate)
				}
				if settings.HTTPPort != 8600 {
					t.Errorf("expected HTTPPort 8600, got %d", settings.HTTPPort)
				}
				if settings.Currency != "Rs." {
					t.Errorf("expected currency Rs., got %s", settings.Currency)
				}
				if len(settings.AllowedOrigins) != 1 || settings.AllowedOrigins[0] != "http://localhost:3000" {
					t.Errorf("expected one allowed origin, got %v", settings.AllowedOrigins)
				}
				if settings.DataPath != "/custom/data" {
					t.Errorf("expected DataPath '/custom/data', got %s", settings.DataPath)
				}
				if settings.LogLevel != "warn" {
					t.Errorf("expected LogLevel warn, got %s", settings.LogLevel)
				}
			},
		},
		{
			name: "empty sections use defaults",
			yamlContent: `
system:
  logLevel: "info"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.PriceModelPath != "price_predictor.pkl" {
					t.Errorf("expected default PriceModelPath, got %s", settings.PriceModelPath)
				}
				if settings.HTTPPort != 8501 {
					t.Errorf("expected default HTTPPort 8501, got %d", settings.HTTPPort)
				}
				if settings.InferenceTimeout != 10*time.Second {
					t.Errorf("expected default InferenceTimeout 10s, got %v", settings.InferenceTimeout)
				}
			},
		},
		{
			name: "environment overrides YAML",
			yamlContent: `
models:
  priceModelPath: "yaml_price.pkl"
server:
  port: 8600
`,
			envOverrides: map[string]string{
				"PRICE_MODEL_PATH": "env_price.pkl",
				"HTTP_PORT":        "8700",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.PriceModelPath != "env_price.pkl" {
					t.Errorf("expected env override 'env_price.pkl', got %s", settings.PriceModelPath)
				}
				if settings.HTTPPort != 8700 {
					t.Errorf("expected env override port 8700, got %d", settings.HTTPPort)
				}
			},
		},
		{
			name: "http backend requires url",
			yamlContent: `
inference:
  backend: "http"
`,
			wantErr: true,
		},
		{
			name:        "invalid YAML",
			yamlContent: "models: [unterminated",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644)
			if err != nil {
				t.Fatalf("failed to write test config file: %v", err)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	clearTestEnv(t)

	_, err := loadFromYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		yamlContent string
		envVars     map[string]string
		validate    func(t *testing.T, settings Settings)
	}{
		{
			name: "load from env when no config file",
			envVars: map[string]string{
				"DATASET_PATH": "env.csv",
			},
			validate: func(t *testing.T, settings Settings) {
				if settings.DatasetPath != "env.csv" {
					t.Errorf("expected DatasetPath 'env.csv', got %s", settings.DatasetPath)
				}
			},
		},
		{
			name:       "load from YAML when config file specified",
			configFile: "config.yaml",
			yamlContent: `
dataset:
  path: "yaml.csv"
`,
			validate: func(t *testing.T, settings Settings) {
				if settings.DatasetPath != "yaml.csv" {
					t.Errorf("expected DatasetPath 'yaml.csv', got %s", settings.DatasetPath)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			if tt.configFile != "" && tt.yamlContent != "" {
				tmpDir := t.TempDir()
				configPath := filepath.Join(tmpDir, tt.configFile)
				err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o644)
				if err != nil {
					t.Fatalf("failed to write test config file: %v", err)
				}
				t.Setenv("CONFIG_FILE", configPath)
			}

			settings, err := Load()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.validate(t, settings)
		})
	}
}

// clearTestEnv clears potentially conflicting environment variables
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "PRICE_MODEL_PATH", "RATING_MODEL_PATH", "ENCODERS_PATH",
		"DATASET_PATH", "PYTHON_PATH", "INFERENCE_BACKEND", "INFERENCE_URL",
		"INFERENCE_TIMEOUT", "INFERENCE_RATE_LIMIT", "HTTP_PORT", "DATA_PATH", "CURRENCY",
		"ALLOWED_ORIGINS", "LOG_LEVEL",
	}

	for _, env := range envVars {
		if val := os.Getenv(env); val != "" {
			t.Setenv(env, "")
		}
	}
}
