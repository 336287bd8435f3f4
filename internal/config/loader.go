// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/xbench/internal/system"
	"gopkg.in/yaml.v3"
)

// Loader handles experiment loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath      string
	probe           system.Probe
	// ConsumedEnvKeys records every variable the loader read, so unknown
	// XBENCH_* keys can be reported.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new experiment loader. A nil probe uses system.Default().
func NewLoader(configPath string, probe system.Probe) *Loader {
	if probe == nil {
		probe = system.Default()
	}
	return &Loader{
		configPath:      configPath,
		probe:           probe,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the experiment file the loader reads.
func (l *Loader) Path() string {
	return l.configPath
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

// Load parses the file strictly, applies environment overrides and
// normalizes the result. The partially filled experiment is returned with
// any error so callers can report what was read.
func (l *Loader) Load() (Experiment, error) {
	exp := DefaultExperiment()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &exp); err != nil {
			return exp, fmt.Errorf("load experiment file: %w", err)
		}
	}

	l.mergeEnvConfig(&exp)
	l.warnUnknownEnv()

	if err := exp.Normalize(l.probe); err != nil {
		return exp, fmt.Errorf("experiment validation failed: %w", err)
	}
	return exp, nil
}

// loadFile decodes a YAML file over exp with STRICT parsing.
// Unknown fields cause an error wrapping ErrUnknownConfigField.
func (l *Loader) loadFile(path string, exp *Experiment) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- experiment file paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return decodeStrict(data, exp)
}

// decodeStrict decodes a single YAML document over exp, rejecting unknown keys.
func decodeStrict(data []byte, exp *Experiment) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(exp); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

// mergeEnvConfig overrides experiment values from XBENCH_* variables.
func (l *Loader) mergeEnvConfig(exp *Experiment) {
	b := &exp.Backend.BackendConfig
	b.Model = l.envString(EnvModel, b.Model)
	b.Device = l.envString(EnvDevice, b.Device)
	b.DeviceIDs = l.envString(EnvDeviceIDs, b.DeviceIDs)

	bench := &exp.Benchmark
	bench.Duration = l.envInt(EnvDuration, bench.Duration)
	bench.WarmupRuns = l.envInt(EnvWarmupRuns, bench.WarmupRuns)
	bench.Energy = l.envBool(EnvEnergy, bench.Energy)
	bench.Memory = l.envBool(EnvMemory, bench.Memory)
	bench.Latency = l.envBool(EnvLatency, bench.Latency)
}
