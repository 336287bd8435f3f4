// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"testing"

	"github.com/ManuGH/xbench/internal/system"
	"github.com/ManuGH/xbench/internal/validate"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cpuHost  = system.Static(system.VendorNone)
	cudaHost = system.Static(system.VendorNVIDIA)
	rocmHost = system.Static(system.VendorAMD)
)

func ptr[T any](v T) *T { return &v }

func newPyTorch() PyTorchConfig {
	c := DefaultPyTorchConfig()
	c.Model = "gpt2"
	c.Device = "cpu"
	return c
}

// fieldErrors returns the validate.Error values wrapped in err.
func fieldErrors(t *testing.T, err error) []validate.Error {
	t.Helper()
	var ve validate.ValidationError
	require.True(t, errors.As(err, &ve), "expected validate.ValidationError, got %T: %v", err, err)
	return ve.Errors()
}

func TestDefaultPyTorchConfig(t *testing.T) {
	c := DefaultPyTorchConfig()
	assert.Equal(t, "pytorch", c.Name)
	assert.True(t, c.EvalMode)
	assert.False(t, c.NoWeights)
	assert.False(t, c.TorchCompile)
	assert.Nil(t, c.DeviceMap)
	assert.Nil(t, c.QuantizationScheme)
	assert.Nil(t, c.PEFTStrategy)
	assert.Equal(t, 42, c.Seed)
	assert.NotNil(t, c.TorchCompileConfig)
	assert.Empty(t, c.TorchCompileConfig)
}

func TestPyTorchNormalize_Minimal(t *testing.T) {
	c := newPyTorch()
	require.NoError(t, c.Normalize(cpuHost))

	assert.Equal(t, "gpt2", c.Processor)
	assert.Equal(t, "transformers", c.Library)
	assert.Empty(t, c.TorchCompileConfig, "compile config untouched while torch_compile is off")
	assert.Equal(t, "main", c.HubKwargs["revision"])
}

func TestPyTorchNormalize_CompileDefaultsMerged(t *testing.T) {
	c := newPyTorch()
	c.TorchCompile = true
	c.TorchCompileConfig = Options{"mode": "max-autotune", "fullgraph": true}

	require.NoError(t, c.Normalize(cpuHost))

	want := Options{
		"fullgraph": true,
		"dynamic":   false,
		"backend":   "inductor",
		"mode":      "max-autotune",
		"options":   nil,
		"disable":   false,
	}
	if diff := cmp.Diff(want, c.TorchCompileConfig); diff != "" {
		t.Errorf("torch_compile_config mismatch (-want +got):\n%s", diff)
	}
}

func TestPyTorchNormalize_AllowLists(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PyTorchConfig)
		field   string
		allowed []string
		value   string
	}{
		{"device_map", func(c *PyTorchConfig) { c.DeviceMap = ptr("balanced") }, "device_map", DeviceMaps, "balanced"},
		{"torch_dtype", func(c *PyTorchConfig) { c.TorchDType = ptr("float8") }, "torch_dtype", TorchDTypes, "float8"},
		{"amp_dtype", func(c *PyTorchConfig) { c.AMPDType = ptr("float32") }, "amp_dtype", AMPDTypes, "float32"},
		{"quantization_scheme", func(c *PyTorchConfig) { c.QuantizationScheme = ptr("hqq") }, "quantization_scheme", QuantizationSchemes, "hqq"},
		{"peft_strategy", func(c *PyTorchConfig) { c.PEFTStrategy = ptr("dora") }, "peft_strategy", PEFTStrategies, "dora"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newPyTorch()
			tt.mutate(&c)

			err := c.Normalize(cpuHost)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			errs := fieldErrors(t, err)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.allowed, errs[0].Allowed)
			assert.Equal(t, tt.value, errs[0].Value)
			assert.Contains(t, err.Error(), tt.field)
			assert.Contains(t, err.Error(), tt.value)
		})
	}
}

func TestPyTorchNormalize_AllowedValuesPass(t *testing.T) {
	for _, dm := range DeviceMaps {
		for _, dt := range TorchDTypes {
			c := newPyTorch()
			c.DeviceMap = ptr(dm)
			c.TorchDType = ptr(dt)
			c.AMPDType = ptr("float16")
			assert.NoError(t, c.Normalize(cpuHost), "device_map=%s torch_dtype=%s", dm, dt)
		}
	}
}

func TestPyTorchNormalize_AccumulatesErrors(t *testing.T) {
	c := newPyTorch()
	c.DeviceMap = ptr("balanced")
	c.TorchDType = ptr("float8")
	c.AMPDType = ptr("int8")

	errs := fieldErrors(t, c.Normalize(cpuHost))
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"device_map", "torch_dtype", "amp_dtype"}, fields)
}

func TestPyTorchNormalize_BnBOnROCm(t *testing.T) {
	c := newPyTorch()
	c.QuantizationScheme = ptr("bnb")

	err := c.Normalize(rocmHost)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "BitsAndBytes is not supported on ROCm GPUs")

	c = newPyTorch()
	c.QuantizationScheme = ptr("bnb")
	assert.NoError(t, c.Normalize(cudaHost))
}

func TestPyTorchNormalize_GPTQOnROCm(t *testing.T) {
	c := newPyTorch()
	c.QuantizationScheme = ptr("gptq")
	assert.NoError(t, c.Normalize(rocmHost))
}

func TestPyTorchNormalize_QuantizationConfigMerge(t *testing.T) {
	c := newPyTorch()
	c.QuantizationScheme = ptr("bnb")
	c.QuantizationConfig = Options{"load_in_8bit": true}

	require.NoError(t, c.Normalize(cudaHost))
	assert.Equal(t, Options{"llm_int8_threshold": 0.0, "load_in_8bit": true}, c.QuantizationConfig)
}

func TestPyTorchNormalize_QuantizationConfigOverride(t *testing.T) {
	c := newPyTorch()
	c.QuantizationScheme = ptr("bnb")
	c.QuantizationConfig = Options{"llm_int8_threshold": 6.0}

	require.NoError(t, c.Normalize(cudaHost))
	assert.Equal(t, Options{"llm_int8_threshold": 6.0}, c.QuantizationConfig)
}

func TestPyTorchNormalize_EmptyQuantizationConfigLeftEmpty(t *testing.T) {
	c := newPyTorch()
	c.QuantizationScheme = ptr("bnb")

	require.NoError(t, c.Normalize(cudaHost))
	assert.Empty(t, c.QuantizationConfig)
}

func TestPyTorchNormalize_PEFTMerge(t *testing.T) {
	c := newPyTorch()
	c.PEFTStrategy = ptr("lora")
	c.PEFTConfig = Options{"task_type": "CAUSAL_LM", "r": 16}

	require.NoError(t, c.Normalize(cpuHost))

	assert.Equal(t, "CAUSAL_LM", c.PEFTConfig["task_type"])
	assert.Equal(t, 16, c.PEFTConfig["r"])
	assert.Equal(t, 8, c.PEFTConfig["lora_alpha"])
	assert.Equal(t, "none", c.PEFTConfig["bias"])
	assert.Equal(t, false, c.PEFTConfig["inference_mode"])
}

func TestPyTorchNormalize_PEFTRequiresTaskType(t *testing.T) {
	for _, strategy := range PEFTStrategies {
		t.Run(strategy, func(t *testing.T) {
			c := newPyTorch()
			c.PEFTStrategy = ptr(strategy)

			err := c.Normalize(cpuHost)
			require.Error(t, err)
			errs := fieldErrors(t, err)
			require.Len(t, errs, 1)
			assert.Equal(t, "peft_config.task_type", errs[0].Field)
			assert.Equal(t, PEFTTaskTypes, errs[0].Allowed)
		})
	}
}

func TestPyTorchNormalize_PEFTExplicitNilTaskType(t *testing.T) {
	c := newPyTorch()
	c.PEFTStrategy = ptr("ia3")
	c.PEFTConfig = Options{"task_type": nil}
	assert.Error(t, c.Normalize(cpuHost))
}

func TestPEFTDefaults(t *testing.T) {
	ada, ok := PEFTDefaults("ada_lora")
	require.True(t, ok)
	assert.Equal(t, 12, ada["init_r"])
	assert.Equal(t, 8, ada["r"], "ada_lora extends lora")

	pt, ok := PEFTDefaults("p_tuning")
	require.True(t, ok)
	assert.Equal(t, "MLP", pt["encoder_reparameterization_type"])
	assert.True(t, pt.Has("num_virtual_tokens"))

	_, ok = PEFTDefaults("dora")
	assert.False(t, ok)

	// fresh copies
	a, _ := PEFTDefaults("lora")
	a["r"] = 64
	b, _ := PEFTDefaults("lora")
	assert.Equal(t, 8, b["r"])
}

func TestPyTorchNormalize_NilProbeUsesDefault(t *testing.T) {
	t.Setenv(system.EnvGPUVendor, "none")
	c := newPyTorch()
	assert.NoError(t, c.Normalize(nil))
}
