// SPDX-License-Identifier: MIT

// Package config loads, normalizes and serves benchmark experiment files.
//
// An Experiment pairs a PyTorchConfig backend with an InferenceConfig
// benchmark. Loading applies defaults, then the strict YAML file, then
// XBENCH_* environment overrides, and finally Normalize, which merges
// partial option maps over their documented defaults and refuses settings
// the host GPU stack cannot run. Field-level failures accumulate into a
// validate.ValidationError per unit; every one satisfies
// errors.Is(err, ErrInvalidConfig).
//
// Holder keeps the last valid experiment and reloads it on file changes.
package config
