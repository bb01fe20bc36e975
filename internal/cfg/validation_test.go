package cfg

import (
	"testing"
	"time"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		PriceModelPath:   "price_predictor.pkl",
		RatingModelPath:  "rating_classifier.pkl",
		EncodersPath:     "label_encoders.json",
		DatasetPath:      "enhanced_zomato_dataset_clean.csv",
		InferenceBackend: "subprocess",
		InferenceTimeout: 10 * time.Second,
		HTTPPort:         8501,
		Currency:         "₹",
		LogLevel:         "info",
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	err := validateSettings(settings)
	if err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_MissingModelPaths(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"missing price model", func(s *Settings) { s.PriceModelPath = "" }},
		{"missing rating model", func(s *Settings) { s.RatingModelPath = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := createValidSettings()
			tc.mutate(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatal("Expected error for missing model path")
			}
			if err.Error() != "price and rating model paths are required" {
				t.Errorf("Expected specific error message, got: %v", err)
			}
		})
	}
}

func TestValidateSettings_EmptyEncodersPath(t *testing.T) {
	settings := createValidSettings()
	settings.EncodersPath = ""

	if err := validateSettings(settings); err == nil {
		t.Error("Expected error for empty encoders path")
	}
}

func TestValidateSettings_EmptyDatasetPath(t *testing.T) {
	settings := createValidSettings()
	settings.DatasetPath = ""

	if err := validateSettings(settings); err == nil {
		t.Error("Expected error for empty dataset path")
	}
}

func TestValidateSettings_Backend(t *testing.T) {
	testCases := []struct {
		name    string
		backend string
		url     string
		wantErr bool
	}{
		{"subprocess", "subprocess", "", false},
		{"http with url", "http", "http://localhost:9000", false},
		{"http without url", "http", "", true},
		{"unknown", "onnx", "", true},
		{"empty", "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := createValidSettings()
			settings.InferenceBackend = tc.backend
			settings.InferenceURL = tc.url

			err := validateSettings(settings)
			if tc.wantErr && err == nil {
				t.Error("Expected error for invalid backend")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error for valid backend, got: %v", err)
			}
		})
	}
}

func TestValidateSettings_InferenceTimeout(t *testing.T) {
	testCases := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"too short", 500 * time.Millisecond, true},
		{"minimum valid", 1 * time.Second, false},
		{"normal", 10 * time.Second, false},
		{"maximum valid", 2 * time.Minute, false},
		{"too long", 5 * time.Minute, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := createValidSettings()
			settings.InferenceTimeout = tc.timeout

			err := validateSettings(settings)
			if tc.wantErr && err == nil {
				t.Error("Expected error for invalid inference timeout")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error for valid inference timeout, got: %v", err)
			}
		})
	}
}

func TestValidateSettings_HTTPPort(t *testing.T) {
	testCases := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"privileged", 80, true},
		{"minimum valid", 1024, false},
		{"streamlit default", 8501, false},
		{"maximum valid", 65535, false},
		{"too high", 70000, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := createValidSettings()
			settings.HTTPPort = tc.port

			err := validateSettings(settings)
			if tc.wantErr && err == nil {
				t.Error("Expected error for invalid HTTP port")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected no error for valid HTTP port, got: %v", err)
			}
		})
	}
}

func TestValidateSettings_EmptyCurrency(t *testing.T) {
	settings := createValidSettings()
	settings.Currency = ""

	if err := validateSettings(settings); err == nil {
		t.Error("Expected error for empty currency")
	}
}

func TestValidateSettings_LogLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		settings := createValidSettings()
		settings.LogLevel = level
		if err := validateSettings(settings); err != nil {
			t.Errorf("Expected log level %q to be valid, got: %v", level, err)
		}
	}

	settings := createValidSettings()
	settings.LogLevel = "verbose"
	if err := validateSettings(settings); err == nil {
		t.Error("Expected error for unknown log level")
	}
}
