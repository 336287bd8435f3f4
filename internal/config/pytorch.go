// SPDX-License-Identifier: MIT

package config

import (
	"github.com/ManuGH/xbench/internal/metrics"
	"github.com/ManuGH/xbench/internal/system"
	"github.com/ManuGH/xbench/internal/validate"
)

// Allowed values of the enumerated PyTorch backend fields.
var (
	DeviceMaps          = []string{"auto", "sequential"}
	AMPDTypes           = []string{"bfloat16", "float16"}
	TorchDTypes         = []string{"bfloat16", "float16", "float32", "auto"}
	QuantizationSchemes = []string{"bnb", "gptq", "awq"}
)

const (
	// BackendPyTorch is the name of the PyTorch backend.
	BackendPyTorch = "pytorch"

	// QuantizationBnB selects BitsAndBytes quantization, unavailable on ROCm.
	QuantizationBnB = "bnb"
)

// CompileDefaults returns the torch.compile options applied when torch_compile is on.
func CompileDefaults() Options {
	return Options{
		"fullgraph": false,
		"dynamic":   false,
		"backend":   "inductor",
		"mode":      nil,
		"options":   nil,
		"disable":   false,
	}
}

// QuantizationDefaults returns the default quantization_config for scheme.
func QuantizationDefaults(scheme string) (Options, bool) {
	switch scheme {
	case "bnb":
		return Options{"llm_int8_threshold": 0.0}, true
	case "gptq", "awq":
		return Options{}, true
	default:
		return nil, false
	}
}

// PyTorchConfig configures the PyTorch execution backend.
type PyTorchConfig struct {
	BackendConfig `yaml:",inline"`

	// load options
	NoWeights  bool    `yaml:"no_weights" json:"no_weights"`
	DeviceMap  *string `yaml:"device_map" json:"device_map"`
	TorchDType *string `yaml:"torch_dtype" json:"torch_dtype"`

	// automatic mixed precision
	AMPAutocast bool    `yaml:"amp_autocast" json:"amp_autocast"`
	AMPDType    *string `yaml:"amp_dtype" json:"amp_dtype"`

	// optimizations
	EvalMode            bool    `yaml:"eval_mode" json:"eval_mode"`
	ToBetterTransformer bool    `yaml:"to_bettertransformer" json:"to_bettertransformer"`
	LowCPUMemUsage      *bool   `yaml:"low_cpu_mem_usage" json:"low_cpu_mem_usage"`
	AttnImplementation  *string `yaml:"attn_implementation" json:"attn_implementation"`
	CacheImplementation *string `yaml:"cache_implementation" json:"cache_implementation"`

	// compilation
	TorchCompile       bool    `yaml:"torch_compile" json:"torch_compile"`
	TorchCompileConfig Options `yaml:"torch_compile_config" json:"torch_compile_config"`

	// quantization
	QuantizationScheme *string `yaml:"quantization_scheme" json:"quantization_scheme"`
	QuantizationConfig Options `yaml:"quantization_config" json:"quantization_config"`

	// distributed inference
	DeepSpeedInference       bool    `yaml:"deepspeed_inference" json:"deepspeed_inference"`
	DeepSpeedInferenceConfig Options `yaml:"deepspeed_inference_config" json:"deepspeed_inference_config"`

	// parameter-efficient fine-tuning
	PEFTStrategy *string `yaml:"peft_strategy" json:"peft_strategy"`
	PEFTConfig   Options `yaml:"peft_config" json:"peft_config"`
}

// DefaultPyTorchConfig returns a PyTorchConfig with every documented default set.
func DefaultPyTorchConfig() PyTorchConfig {
	return PyTorchConfig{
		BackendConfig:            defaultBackendConfig(BackendPyTorch),
		EvalMode:                 true,
		TorchCompileConfig:       Options{},
		QuantizationConfig:       Options{},
		DeepSpeedInferenceConfig: Options{},
		PEFTConfig:               Options{},
	}
}

// Normalize merges option defaults into c and checks it. All problems are
// reported together; the returned error matches ErrInvalidConfig.
// A nil probe uses system.Default().
func (c *PyTorchConfig) Normalize(probe system.Probe) error {
	if probe == nil {
		probe = system.Default()
	}
	v := validate.New()

	c.BackendConfig.normalize(v, probe)

	if c.TorchCompile {
		c.TorchCompileConfig = Merge(CompileDefaults(), c.TorchCompileConfig)
	}

	v.OptionalOneOf("device_map", c.DeviceMap, DeviceMaps)
	v.OptionalOneOf("torch_dtype", c.TorchDType, TorchDTypes)
	v.OptionalOneOf("amp_dtype", c.AMPDType, AMPDTypes)

	if c.QuantizationScheme != nil {
		c.normalizeQuantization(v, probe)
	}
	if c.PEFTStrategy != nil {
		c.normalizePEFT(v)
	}

	if c.DeepSpeedInferenceConfig == nil {
		c.DeepSpeedInferenceConfig = Options{}
	}

	err := v.Err()
	metrics.RecordValidation(c.Name, err)
	return err
}

func (c *PyTorchConfig) normalizeQuantization(v *validate.Validator, probe system.Probe) {
	scheme := *c.QuantizationScheme
	defaults, ok := QuantizationDefaults(scheme)
	if !ok {
		v.OneOf("quantization_scheme", scheme, QuantizationSchemes)
		return
	}

	if scheme == QuantizationBnB && probe.IsROCm() {
		v.AddError("quantization_scheme", "BitsAndBytes is not supported on ROCm GPUs, please disable it", scheme)
	}

	// An empty quantization_config is left for the backend to fill.
	if len(c.QuantizationConfig) > 0 {
		c.QuantizationConfig = Merge(defaults, c.QuantizationConfig)
	}
}

func (c *PyTorchConfig) normalizePEFT(v *validate.Validator) {
	strategy := *c.PEFTStrategy
	defaults, ok := PEFTDefaults(strategy)
	if !ok {
		v.OneOf("peft_strategy", strategy, PEFTStrategies)
		return
	}

	c.PEFTConfig = Merge(defaults, c.PEFTConfig)
	if c.PEFTConfig["task_type"] == nil {
		v.MissingOneOf("peft_config.task_type", PEFTTaskTypes)
	}
}
