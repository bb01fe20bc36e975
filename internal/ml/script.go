package ml

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// helperScript serves two commands:
//
//	predict <model.pkl>   reads {"columns","values"} on stdin, prints {"prediction"};
//	                      a non-numeric class prints 1 when truthy, else 0
//	encoders <enc.pkl>    prints {"<column>": [classes...]} for a dict of LabelEncoders
const helperScript = `#!/usr/bin/env python3
import sys
import json

try:
    import joblib
    import pandas as pd
except ImportError as e:
    print(json.dumps({"error": "missing dependency: %s" % e}))
    sys.exit(1)


def as_number(value):
    try:
        return float(value)
    except (TypeError, ValueError):
        # label classes such as "Yes": any non-empty label counts as 1
        return 1.0 if value else 0.0


def predict(model_path):
    request = json.load(sys.stdin)
    frame = pd.DataFrame([request["values"]], columns=request["columns"])
    model = joblib.load(model_path)
    value = model.predict(frame)[0]
    print(json.dumps({"prediction": as_number(value)}))


def encoders(path):
    table = joblib.load(path)
    out = {}
    for column, encoder in table.items():
        out[str(column)] = [str(c) for c in encoder.classes_]
    print(json.dumps(out))


def main():
    if len(sys.argv) != 3 or sys.argv[1] not in ("predict", "encoders"):
        print(json.dumps({"error": "usage: helper.py predict|encoders <path>"}))
        sys.exit(1)
    try:
        if sys.argv[1] == "predict":
            predict(sys.argv[2])
        else:
            encoders(sys.argv[2])
    except Exception as e:
        print(json.dumps({"error": str(e)}))
        sys.exit(1)


if __name__ == "__main__":
    main()
`

// ensureHelperScript writes the helper into dir unless a file of that name
// already exists there, and returns its path.
func ensureHelperScript(dir string) (string, error) {
	path := filepath.Join(dir, helperScriptName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(helperScript), 0o755); err != nil {
		return "", fmt.Errorf("failed to create helper script: %w", err)
	}
	log.Debug().Str("script_path", path).Msg("Helper script created")
	return path, nil
}

// ExportEncoders converts a pickled dict of LabelEncoders into the JSON
// vocabulary file read by the encoding package.
func ExportEncoders(ctx context.Context, pythonPath, pklPath, jsonPath string, timeout time.Duration) error {
	if _, err := os.Stat(pklPath); err != nil {
		return fmt.Errorf("encoders %s: %w", pklPath, err)
	}

	var err error
	if pythonPath == "" {
		if pythonPath, err = findPython(); err != nil {
			return err
		}
	}

	scriptPath, err := ensureHelperScript(filepath.Dir(pklPath))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, pythonPath, scriptPath, "encoders", pklPath)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if resp, perr := parseResponse(stdout.Bytes()); perr == nil && resp.Error != "" {
			return fmt.Errorf("encoder export failed: %s", resp.Error)
		}
		return fmt.Errorf("encoder export failed: %w, stderr: %s", err, stderr.String())
	}

	if err := os.WriteFile(jsonPath, bytes.TrimSpace(stdout.Bytes()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", jsonPath, err)
	}

	log.Info().
		Str("source", pklPath).
		Str("target", jsonPath).
		Msg("Label encoders exported")
	return nil
}
