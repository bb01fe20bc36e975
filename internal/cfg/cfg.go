package cfg

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"restaurant-intel/internal/common"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	PriceModelPath   string
	RatingModelPath  string
	EncodersPath     string
	DatasetPath      string
	PythonPath       string
	InferenceBackend string
	InferenceURL     string
	InferenceTimeout time.Duration
	InferenceRate    float64 // subprocess spawns per second, 0 for unlimited
	HTTPPort         int
	DataPath         string
	Currency         string
	AllowedOrigins   []string
	LogLevel         string
}

type ConfigFile struct {
	Models struct {
		PriceModelPath  string `yaml:"priceModelPath"`
		RatingModelPath string `yaml:"ratingModelPath"`
		EncodersPath    string `yaml:"encodersPath"`
	} `yaml:"models"`

	Dataset struct {
		Path string `yaml:"path"`
	} `yaml:"dataset"`

	Inference struct {
		Backend    string  `yaml:"backend"`
		URL        string  `yaml:"url"`
		PythonPath string  `yaml:"pythonPath"`
		Timeout    string  `yaml:"timeout"`
		RateLimit  float64 `yaml:"rateLimit"`
	} `yaml:"inference"`

	Server struct {
		Port           int      `yaml:"port"`
		Currency       string   `yaml:"currency"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	System struct {
		DataPath string `yaml:"dataPath"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	timeout, err := time.ParseDuration(config.Inference.Timeout)
	if err != nil {
		timeout = 10 * time.Second
	}

	settings := Settings{
		PriceModelPath:   getEnvOrDefault(common.EnvPriceModelPath, orDefault(config.Models.PriceModelPath, common.DefaultPriceModelPath)),
		RatingModelPath:  getEnvOrDefault(common.EnvRatingModelPath, orDefault(config.Models.RatingModelPath, common.DefaultRatingModelPath)),
		EncodersPath:     getEnvOrDefault(common.EnvEncodersPath, orDefault(config.Models.EncodersPath, common.DefaultEncodersPath)),
		DatasetPath:      getEnvOrDefault(common.EnvDatasetPath, orDefault(config.Dataset.Path, common.DefaultDatasetPath)),
		PythonPath:       getEnvOrDefault(common.EnvPythonPath, config.Inference.PythonPath),
		InferenceBackend: getEnvOrDefault(common.EnvInferenceBackend, orDefault(config.Inference.Backend, common.DefaultInferenceBackend)),
		InferenceURL:     getEnvOrDefault(common.EnvInferenceURL, config.Inference.URL),
		InferenceTimeout: getDurationOrDefault(common.EnvInferenceTimeout, timeout),
		InferenceRate:    getFloatOrDefault(common.EnvInferenceRate, config.Inference.RateLimit),
		HTTPPort:         getIntFromEnvOrConfig(common.EnvHTTPPort, config.Server.Port, common.DefaultHTTPPort),
		DataPath:         getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		Currency:         getEnvOrDefault(common.EnvCurrency, orDefault(config.Server.Currency, common.DefaultCurrency)),
		AllowedOrigins:   getListFromEnvOrConfig(common.EnvAllowedOrigins, config.Server.AllowedOrigins),
		LogLevel:         getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		PriceModelPath:   getEnvOrDefault(common.EnvPriceModelPath, common.DefaultPriceModelPath),
		RatingModelPath:  getEnvOrDefault(common.EnvRatingModelPath, common.DefaultRatingModelPath),
		EncodersPath:     getEnvOrDefault(common.EnvEncodersPath, common.DefaultEncodersPath),
		DatasetPath:      getEnvOrDefault(common.EnvDatasetPath, common.DefaultDatasetPath),
		PythonPath:       os.Getenv(common.EnvPythonPath), // optional, discovered when empty
		InferenceBackend: getEnvOrDefault(common.EnvInferenceBackend, common.DefaultInferenceBackend),
		InferenceURL:     os.Getenv(common.EnvInferenceURL),
		InferenceTimeout: getDurationOrDefault(common.EnvInferenceTimeout, 10*time.Second),
		InferenceRate:    getFloatOrDefault(common.EnvInferenceRate, 0),
		HTTPPort:         getIntOrDefault(common.EnvHTTPPort, common.DefaultHTTPPort),
		DataPath:         os.Getenv(common.EnvDataPath), // optional
		Currency:         getEnvOrDefault(common.EnvCurrency, common.DefaultCurrency),
		AllowedOrigins:   splitOrDefault(os.Getenv(common.EnvAllowedOrigins), nil),
		LogLevel:         getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getListFromEnvOrConfig(key string, configValue []string) []string {
	if env := os.Getenv(key); env != "" {
		return splitOrDefault(env, nil)
	}
	return configValue
}

// validateSettings checks the loaded values before any artifact is opened
func validateSettings(settings *Settings) error {
	// Artifact paths
	if settings.PriceModelPath == "" || settings.RatingModelPath == "" {
		return fmt.Errorf("price and rating model paths are required")
	}
	if settings.EncodersPath == "" {
		return fmt.Errorf("encoders path cannot be empty")
	}
	if settings.DatasetPath == "" {
		return fmt.Errorf("dataset path cannot be empty")
	}

	// Inference backend
	switch settings.InferenceBackend {
	case common.BackendSubprocess:
	case common.BackendHTTP:
		if settings.InferenceURL == "" {
			return fmt.Errorf("inference URL is required for the %s backend", common.BackendHTTP)
		}
	default:
		return fmt.Errorf("unknown inference backend %q (want %s or %s)",
			settings.InferenceBackend, common.BackendSubprocess, common.BackendHTTP)
	}
	if settings.InferenceTimeout < time.Second || settings.InferenceTimeout > 2*time.Minute {
		return fmt.Errorf("inference timeout must be between 1s and 2m, got %v", settings.InferenceTimeout)
	}
	if settings.InferenceRate < 0 || math.IsNaN(settings.InferenceRate) || math.IsInf(settings.InferenceRate, 0) {
		return fmt.Errorf("inference rate limit must be a non-negative number, got %v", settings.InferenceRate)
	}

	// Server
	if settings.HTTPPort < common.MinHTTPPort || settings.HTTPPort > common.MaxHTTPPort {
		return fmt.Errorf("HTTP port must be between %d and %d, got %d",
			common.MinHTTPPort, common.MaxHTTPPort, settings.HTTPPort)
	}
	if settings.Currency == "" {
		return fmt.Errorf("currency symbol cannot be empty")
	}

	switch strings.ToLower(settings.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	return nil
}
