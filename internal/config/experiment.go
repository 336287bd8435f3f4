// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/xbench/internal/system"
	"golang.org/x/text/unicode/norm"
)

// Experiment is the root of an experiment file: one backend, one benchmark.
type Experiment struct {
	Name      string          `yaml:"name" json:"name"`
	Backend   PyTorchConfig   `yaml:"backend" json:"backend"`
	Benchmark InferenceConfig `yaml:"benchmark" json:"benchmark"`
}

// DefaultExperiment returns an experiment with backend and benchmark defaults.
func DefaultExperiment() Experiment {
	return Experiment{
		Backend:   DefaultPyTorchConfig(),
		Benchmark: DefaultInferenceConfig(),
	}
}

// Normalize trims the experiment name to NFC, normalizes backend and
// benchmark and returns their combined errors, each prefixed with the unit it
// belongs to.
func (e *Experiment) Normalize(probe system.Probe) error {
	if probe == nil {
		probe = system.Default()
	}
	// NFC so visually equal names compare equal
	e.Name = norm.NFC.String(strings.TrimSpace(e.Name))

	var errs []error
	if e.Name == "" {
		errs = append(errs, fmt.Errorf("experiment: %w: name is required", ErrInvalidConfig))
	}
	if err := e.Backend.Normalize(probe); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	if err := e.Benchmark.Normalize(probe); err != nil {
		errs = append(errs, fmt.Errorf("benchmark: %w", err))
	}
	return errors.Join(errs...)
}
