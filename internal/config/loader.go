package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Loader reads a JSON config file into a typed value.
type Loader[C any] struct {
	filePath string
}

func NewLoader[C any](filePath string) (zero *Loader[C], _ error) {
	if len(filePath) == 0 {
		return zero, fmt.Errorf("config file path is empty")
	}
	return &Loader[C]{
		filePath: filePath,
	}, nil
}

func (l *Loader[C]) Load() (zero C, _ error) {
	var config C
	jsFile, err := os.ReadFile(l.filePath)
	if err != nil {
		return zero, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(jsFile, &config); err != nil {
		return zero, fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	return config, nil
}
