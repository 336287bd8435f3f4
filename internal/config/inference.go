// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"github.com/ManuGH/xbench/internal/log"
	"github.com/ManuGH/xbench/internal/metrics"
	"github.com/ManuGH/xbench/internal/system"
	"github.com/ManuGH/xbench/internal/validate"
)

const (
	// BenchmarkInference is the name of the inference benchmark.
	BenchmarkInference = "inference"

	keyMaxNewTokens = "max_new_tokens"
	keyMinNewTokens = "min_new_tokens"
)

// InputShapeDefaults returns the input shapes used for keys the user leaves out.
func InputShapeDefaults() Options {
	return Options{
		"batch_size":      2,
		"num_choices":     2,
		"sequence_length": 16,
	}
}

// InferenceConfig configures an inference benchmark run.
type InferenceConfig struct {
	BenchmarkConfig `yaml:",inline"`

	// Duration is the minimum benchmark duration in seconds.
	Duration int `yaml:"duration" json:"duration"`
	// WarmupRuns is the number of runs performed before measuring.
	WarmupRuns int `yaml:"warmup_runs" json:"warmup_runs"`

	// InputShapes are merged over InputShapeDefaults.
	InputShapes Options `yaml:"input_shapes" json:"input_shapes"`
	// NewTokens is deprecated: it sets both max_new_tokens and min_new_tokens.
	NewTokens *int `yaml:"new_tokens" json:"new_tokens"`

	Energy  bool `yaml:"energy" json:"energy"`
	Memory  bool `yaml:"memory" json:"memory"`
	Latency bool `yaml:"latency" json:"latency"`

	ForwardKwargs  Options `yaml:"forward_kwargs" json:"forward_kwargs"`
	GenerateKwargs Options `yaml:"generate_kwargs" json:"generate_kwargs"`
	CallKwargs     Options `yaml:"call_kwargs" json:"call_kwargs"`
}

// DefaultInferenceConfig returns an InferenceConfig with every documented default set.
func DefaultInferenceConfig() InferenceConfig {
	return InferenceConfig{
		BenchmarkConfig: BenchmarkConfig{Name: BenchmarkInference},
		Duration:        10,
		WarmupRuns:      10,
		InputShapes:     Options{},
		Latency:         true,
		ForwardKwargs:   Options{},
		GenerateKwargs:  Options{},
		CallKwargs:      Options{},
	}
}

// Normalize fills input shape defaults, reconciles the new token counts and
// checks platform support. The caller's GenerateKwargs map is replaced, never
// written to. A nil probe uses system.Default().
func (c *InferenceConfig) Normalize(probe system.Probe) error {
	if probe == nil {
		probe = system.Default()
	}
	v := validate.New()

	c.BenchmarkConfig.normalize(v)
	v.NonNegative("duration", c.Duration)
	v.NonNegative("warmup_runs", c.WarmupRuns)

	c.InputShapes = Merge(InputShapeDefaults(), c.InputShapes)

	c.GenerateKwargs = c.normalizeNewTokens(v)

	if c.Energy && probe.IsROCm() {
		v.AddError("energy", "energy measurement through codecarbon is not yet available on ROCm-powered devices", c.Energy)
	}

	if c.ForwardKwargs == nil {
		c.ForwardKwargs = Options{}
	}
	if c.CallKwargs == nil {
		c.CallKwargs = Options{}
	}

	err := v.Err()
	metrics.RecordValidation(c.Name, err)
	return err
}

// normalizeNewTokens makes max_new_tokens and min_new_tokens equal so the
// generated length is deterministic.
func (c *InferenceConfig) normalizeNewTokens(v *validate.Validator) Options {
	logger := log.WithComponent("config").With().Str(log.FieldUnit, c.Name).Logger()
	gen := c.GenerateKwargs.Clone()

	if c.NewTokens != nil {
		warnDeprecated("new_tokens")
		gen[keyMaxNewTokens] = *c.NewTokens
		gen[keyMinNewTokens] = *c.NewTokens
	}

	hasMax, hasMin := gen.Has(keyMaxNewTokens), gen.Has(keyMinNewTokens)
	maxTokens, maxOK := gen.Int(keyMaxNewTokens)
	minTokens, minOK := gen.Int(keyMinNewTokens)
	if hasMax && !maxOK {
		v.AddError("generate_kwargs."+keyMaxNewTokens, fmt.Sprintf("value must be an integer, got %v", gen[keyMaxNewTokens]), gen[keyMaxNewTokens])
	}
	if hasMin && !minOK {
		v.AddError("generate_kwargs."+keyMinNewTokens, fmt.Sprintf("value must be an integer, got %v", gen[keyMinNewTokens]), gen[keyMinNewTokens])
	}
	if (hasMax && !maxOK) || (hasMin && !minOK) {
		return gen
	}

	switch {
	case hasMax && hasMin && maxTokens != minTokens:
		v.AddError("generate_kwargs",
			fmt.Sprintf("setting min_new_tokens (%d) and max_new_tokens (%d) to different values results in non-deterministic behavior", minTokens, maxTokens),
			gen)
	case hasMax && !hasMin:
		logger.Warn().
			Str(log.FieldField, "generate_kwargs."+keyMinNewTokens).
			Int(keyMaxNewTokens, maxTokens).
			Msg("setting max_new_tokens without min_new_tokens results in non-deterministic behavior, setting min_new_tokens to max_new_tokens")
		gen[keyMinNewTokens] = maxTokens
	case hasMin && !hasMax:
		logger.Warn().
			Str(log.FieldField, "generate_kwargs."+keyMaxNewTokens).
			Int(keyMinNewTokens, minTokens).
			Msg("setting min_new_tokens without max_new_tokens results in non-deterministic behavior, setting max_new_tokens to min_new_tokens")
		gen[keyMaxNewTokens] = minTokens
	}
	return gen
}
