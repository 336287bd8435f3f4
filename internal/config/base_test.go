// SPDX-License-Identifier: MIT

package config

import (
	"runtime"
	"testing"

	"github.com/ManuGH/xbench/internal/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendNormalize_ModelRequired(t *testing.T) {
	c := DefaultPyTorchConfig()
	c.Device = "cpu"

	errs := fieldErrors(t, c.Normalize(cpuHost))
	require.Len(t, errs, 1)
	assert.Equal(t, "model", errs[0].Field)
}

func TestBackendNormalize_DeviceDefaults(t *testing.T) {
	tests := []struct {
		name string
		host system.Probe
		want string
	}{
		{"cpu host", cpuHost, "cpu"},
		{"nvidia host", cudaHost, "cuda"},
		{"rocm host", rocmHost, "cuda"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultPyTorchConfig()
			c.Model = "gpt2"

			require.NoError(t, c.Normalize(tt.host))
			assert.Equal(t, tt.want, c.Device)
		})
	}
}

func TestBackendNormalize_InlineDeviceIDs(t *testing.T) {
	c := newPyTorch()
	c.Device = "cuda:0,1"

	require.NoError(t, c.Normalize(cudaHost))
	assert.Equal(t, "cuda", c.Device)
	assert.Equal(t, "0,1", c.DeviceIDs)
}

func TestBackendNormalize_DeviceIDsFromEnv(t *testing.T) {
	t.Setenv("CUDA_VISIBLE_DEVICES", "2,3")
	c := newPyTorch()
	c.Device = "cuda"

	require.NoError(t, c.Normalize(cudaHost))
	assert.Equal(t, "2,3", c.DeviceIDs)
}

func TestBackendNormalize_DeviceIDsFromHIPOnROCm(t *testing.T) {
	t.Setenv("HIP_VISIBLE_DEVICES", "1")
	c := newPyTorch()
	c.Device = "cuda"

	require.NoError(t, c.Normalize(rocmHost))
	assert.Equal(t, "1", c.DeviceIDs)

	c = newPyTorch()
	c.Device = "cuda"
	require.NoError(t, c.Normalize(cudaHost))
	assert.Equal(t, "0", c.DeviceIDs, "HIP_VISIBLE_DEVICES is ignored outside ROCm")
}

func TestBackendNormalize_UnknownDeviceAndLibrary(t *testing.T) {
	c := newPyTorch()
	c.Device = "tpu"
	c.Library = "jax"

	errs := fieldErrors(t, c.Normalize(cpuHost))
	require.Len(t, errs, 2)
	assert.Equal(t, "library", errs[0].Field)
	assert.Equal(t, Libraries, errs[0].Allowed)
	assert.Equal(t, "device", errs[1].Field)
	assert.Equal(t, Devices, errs[1].Allowed)
}

func TestBackendNormalize_Threads(t *testing.T) {
	c := newPyTorch()
	c.InterOpNumThreads = ptr(-1)
	c.IntraOpNumThreads = ptr(4)

	require.NoError(t, c.Normalize(cpuHost))
	assert.Equal(t, runtime.NumCPU(), *c.InterOpNumThreads)
	assert.Equal(t, 4, *c.IntraOpNumThreads)
}

func TestBackendNormalize_HubKwargs(t *testing.T) {
	c := newPyTorch()
	c.HubKwargs = Options{"revision": "v1.0", "token": "hf_x"}

	require.NoError(t, c.Normalize(cpuHost))
	assert.Equal(t, Options{
		"revision":          "v1.0",
		"force_download":    false,
		"local_files_only":  false,
		"trust_remote_code": false,
		"token":             "hf_x",
	}, c.HubKwargs)
}

func TestVisibleDevicesEnv(t *testing.T) {
	c := newPyTorch()
	assert.Empty(t, c.VisibleDevicesEnv(cudaHost))

	c.Device = "cuda"
	c.DeviceIDs = "0,1"
	assert.Equal(t, map[string]string{
		"CUDA_DEVICE_ORDER":    "PCI_BUS_ID",
		"CUDA_VISIBLE_DEVICES": "0,1",
	}, c.VisibleDevicesEnv(cudaHost))

	env := c.VisibleDevicesEnv(rocmHost)
	assert.Equal(t, "0,1", env["ROCR_VISIBLE_DEVICES"])
}
