package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/logger"
)

const moduleName = "config"

// LoadFromBytes parses a YAML configuration document into a Config seeded
// with defaults. `${VAR}` references in the document are expanded from the
// environment before parsing, so credentials can stay out of the file.
func LoadFromBytes(raw []byte) (*Config, error) {
	cfg := NewConfig()

	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, exception.New(exception.KindValidation, moduleName,
			"failed to unmarshal configuration YAML", err)
	}
	return cfg, nil
}

// LoadFromFile loads the configuration from a YAML file. A `.env` file, when
// present, is loaded first so its variables participate in expansion.
func LoadFromFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not found or could not be loaded: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, exception.Newf(exception.KindValidation, moduleName,
			"failed to read configuration file '%s'", path, err)
	}
	return LoadFromBytes(raw)
}
