// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"runtime"
	"strings"

	xglog "github.com/ManuGH/xbench/internal/log"
	"github.com/ManuGH/xbench/internal/system"
	"github.com/ManuGH/xbench/internal/validate"
)

// Devices accepted by BackendConfig.Device.
var Devices = []string{"cpu", "cuda", "mps", "xpu", "gpu"}

// Libraries accepted by BackendConfig.Library.
var Libraries = []string{"transformers", "diffusers", "timm", "llama_cpp"}

const (
	defaultSeed      = 42
	defaultLibrary   = "transformers"
	defaultDeviceIDs = "0"
)

// hubDefaults are the model hub download options.
func hubDefaults() Options {
	return Options{
		"revision":          "main",
		"force_download":    false,
		"local_files_only":  false,
		"trust_remote_code": false,
	}
}

// BackendConfig holds the settings every execution backend shares.
type BackendConfig struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`

	Task      string `yaml:"task" json:"task"`
	Library   string `yaml:"library" json:"library"`
	Model     string `yaml:"model" json:"model"`
	Processor string `yaml:"processor" json:"processor"`

	// Device may carry ids in the "cuda:0,1" form; normalization splits them
	// into DeviceIDs.
	Device    string `yaml:"device" json:"device"`
	DeviceIDs string `yaml:"device_ids" json:"device_ids"`

	Seed              int  `yaml:"seed" json:"seed"`
	InterOpNumThreads *int `yaml:"inter_op_num_threads" json:"inter_op_num_threads"`
	IntraOpNumThreads *int `yaml:"intra_op_num_threads" json:"intra_op_num_threads"`

	ModelKwargs     Options `yaml:"model_kwargs" json:"model_kwargs"`
	ProcessorKwargs Options `yaml:"processor_kwargs" json:"processor_kwargs"`
	HubKwargs       Options `yaml:"hub_kwargs" json:"hub_kwargs"`
}

func defaultBackendConfig(name string) BackendConfig {
	return BackendConfig{
		Name:            name,
		Seed:            defaultSeed,
		ModelKwargs:     Options{},
		ProcessorKwargs: Options{},
		HubKwargs:       Options{},
	}
}

func (c *BackendConfig) normalize(v *validate.Validator, probe system.Probe) {
	logger := xglog.WithComponent("config").With().Str(xglog.FieldUnit, c.Name).Logger()

	v.Required("model", c.Model)
	if c.Processor == "" {
		c.Processor = c.Model
	}

	if c.Library == "" {
		c.Library = defaultLibrary
	}
	v.OneOf("library", c.Library, Libraries)

	if c.Device == "" {
		switch probe.Vendor() {
		case system.VendorNVIDIA, system.VendorAMD:
			c.Device = "cuda"
		default:
			c.Device = "cpu"
		}
		logger.Debug().Str("device", c.Device).Msg("device not set, using detected default")
	}

	if dev, ids, ok := strings.Cut(c.Device, ":"); ok {
		logger.Warn().
			Str(xglog.FieldField, "device").
			Str("device", dev).
			Str("device_ids", ids).
			Msg("device ids given inline, moving them to device_ids")
		c.Device, c.DeviceIDs = dev, ids
	}
	v.OneOf("device", c.Device, Devices)

	if c.Device == "cuda" && c.DeviceIDs == "" {
		c.DeviceIDs = visibleDeviceIDs(probe)
		logger.Warn().
			Str(xglog.FieldField, "device_ids").
			Str("device_ids", c.DeviceIDs).
			Msg("device_ids not set, using visible devices")
	}

	cpus := runtime.NumCPU()
	if c.InterOpNumThreads != nil && *c.InterOpNumThreads == -1 {
		c.InterOpNumThreads = &cpus
	}
	if c.IntraOpNumThreads != nil && *c.IntraOpNumThreads == -1 {
		n := cpus
		c.IntraOpNumThreads = &n
	}

	c.HubKwargs = Merge(hubDefaults(), c.HubKwargs)
	if c.ModelKwargs == nil {
		c.ModelKwargs = Options{}
	}
	if c.ProcessorKwargs == nil {
		c.ProcessorKwargs = Options{}
	}
}

// visibleDeviceIDs resolves device ids from the visibility variables the GPU
// runtimes already honor.
func visibleDeviceIDs(probe system.Probe) string {
	keys := []string{"CUDA_VISIBLE_DEVICES"}
	if probe.IsROCm() {
		keys = append(keys, "HIP_VISIBLE_DEVICES", "ROCR_VISIBLE_DEVICES")
	}
	for _, k := range keys {
		if v := strings.Trim(strings.TrimSpace(os.Getenv(k)), "\"'"); v != "" {
			return v
		}
	}
	return defaultDeviceIDs
}

// VisibleDevicesEnv returns the environment a launcher must export so the
// framework sees exactly DeviceIDs. It is empty for non-cuda devices.
func (c *BackendConfig) VisibleDevicesEnv(probe system.Probe) map[string]string {
	if c.Device != "cuda" || c.DeviceIDs == "" {
		return map[string]string{}
	}
	env := map[string]string{
		"CUDA_DEVICE_ORDER":    "PCI_BUS_ID",
		"CUDA_VISIBLE_DEVICES": c.DeviceIDs,
	}
	if probe != nil && probe.IsROCm() {
		env["ROCR_VISIBLE_DEVICES"] = c.DeviceIDs
	}
	return env
}

// BenchmarkConfig holds the settings every benchmark shares.
type BenchmarkConfig struct {
	Name string `yaml:"name" json:"name"`
}

func (c *BenchmarkConfig) normalize(v *validate.Validator) {
	v.Required("name", c.Name)
}
