package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	yaml "go.yaml.in/yaml/v3"
)

// fileConfig mirrors Config for YAML decoding. Durations are strings so they can
// be written the way time.ParseDuration reads them ("250ms", "1s").
type fileConfig struct {
	ListenAddr       string  `yaml:"listen_addr"`
	LogLevel         string  `yaml:"log_level"`
	Executor         string  `yaml:"executor"`
	LoopInterval     string  `yaml:"loop_interval"`
	DispatchInterval string  `yaml:"dispatch_interval"`
	MaxSteps         *uint64 `yaml:"max_steps"`
	MaxBacklog       *int    `yaml:"max_backlog"`
}

// applyFile overlays the YAML file at path onto cfg. Unknown keys are rejected.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	if fc.Executor != "" {
		cfg.Executor = fc.Executor
	}
	if fc.LoopInterval != "" {
		d, err := parseDuration("loop_interval", fc.LoopInterval)
		if err != nil {
			return err
		}
		cfg.LoopInterval = d
	}
	if fc.DispatchInterval != "" {
		d, err := parseDuration("dispatch_interval", fc.DispatchInterval)
		if err != nil {
			return err
		}
		cfg.DispatchInterval = d
	}
	if fc.MaxSteps != nil {
		cfg.MaxSteps = *fc.MaxSteps
	}
	if fc.MaxBacklog != nil {
		cfg.MaxBacklog = *fc.MaxBacklog
	}
	return nil
}
