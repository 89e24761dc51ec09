package app

import "errors"

// Config holds everything one launcher invocation needs: the requested
// backend, the argument tail forwarded to it untouched, and the logging and
// profile settings established before dispatch.
type Config struct {
	BackendName string
	BackendArgs []string

	Debug        bool
	LogFormat    string
	ProfilesPath string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.BackendName == "" {
		return nil, errors.New("BackendName is a required configuration field and cannot be empty")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	return &cfg, nil
}
