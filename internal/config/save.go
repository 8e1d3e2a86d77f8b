package config

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sightlinehq/sightline/internal/errors"
)

// Save writes the config as YAML to path, creating parent directories
// as needed. The file is written 0600 because it may hold the API token.
func Save(cfg *Config, path string) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode config", "")
	}
	if err := encoder.Close(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode config", "")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to create config directory: "+dir,
				"Check directory permissions")
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write config file: "+path,
			"Check file permissions")
	}

	return nil
}

// GlobalPath returns the global config file path under the user's home
// directory, or an error if home cannot be determined.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine home directory",
			"Set HOME, or pass --config with an explicit path")
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile), nil
}
