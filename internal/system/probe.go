// SPDX-License-Identifier: MIT

// Package system answers host introspection questions the configuration
// layer depends on, chiefly which GPU vendor stack the host runs.
package system

import (
	"fmt"
	"os"
	"strings"
	"sync"

	xglog "github.com/ManuGH/xbench/internal/log"
)

// EnvGPUVendor overrides hardware detection when set.
const EnvGPUVendor = "XBENCH_GPU_VENDOR"

// Vendor identifies the GPU software stack of the host.
type Vendor string

const (
	VendorNone   Vendor = "none"
	VendorNVIDIA Vendor = "nvidia"
	VendorAMD    Vendor = "amd"
	VendorIntel  Vendor = "intel"
)

// ParseVendor accepts the vendor names used by EnvGPUVendor and the CLI.
func ParseVendor(s string) (Vendor, error) {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(s), "\"'")) {
	case "none", "cpu", "":
		return VendorNone, nil
	case "nvidia", "cuda":
		return VendorNVIDIA, nil
	case "amd", "rocm":
		return VendorAMD, nil
	case "intel", "xpu":
		return VendorIntel, nil
	default:
		return "", fmt.Errorf("unknown gpu vendor %q (allowed: nvidia, amd, intel, none)", s)
	}
}

// Probe is the system introspection used by configuration normalization.
type Probe interface {
	Vendor() Vendor
	IsROCm() bool
}

// Static is a Probe with a fixed answer.
type Static Vendor

// Vendor returns the fixed vendor.
func (s Static) Vendor() Vendor { return Vendor(s) }

// IsROCm reports whether the fixed vendor is AMD.
func (s Static) IsROCm() bool { return Vendor(s) == VendorAMD }

// PCIProbe detects the GPU vendor from PCI sysfs. The answer is computed once.
type PCIProbe struct {
	// Root is the PCI devices directory, normally /sys/bus/pci/devices.
	Root string
	// KFDPath is the ROCm kernel driver node. An AMD GPU without it is not
	// usable through ROCm (e.g. an APU driven only by amdgpu for display).
	KFDPath string

	once   sync.Once
	vendor Vendor
}

// NewPCIProbe returns a probe reading the standard Linux locations.
func NewPCIProbe() *PCIProbe {
	return &PCIProbe{
		Root:    DefaultPCIRoot,
		KFDPath: "/dev/kfd",
	}
}

// Vendor returns the detected vendor, honoring EnvGPUVendor.
func (p *PCIProbe) Vendor() Vendor {
	p.once.Do(func() {
		p.vendor = p.detect()
	})
	return p.vendor
}

// IsROCm reports whether the host runs an AMD ROCm stack.
func (p *PCIProbe) IsROCm() bool {
	return p.Vendor() == VendorAMD
}

func (p *PCIProbe) detect() Vendor {
	logger := xglog.WithComponent("system")

	if raw, ok := os.LookupEnv(EnvGPUVendor); ok && strings.TrimSpace(raw) != "" {
		v, err := ParseVendor(raw)
		if err == nil {
			logger.Debug().
				Str(xglog.FieldGPUVendor, string(v)).
				Str("source", "environment").
				Msg("gpu vendor override")
			return v
		}
		logger.Warn().Err(err).Msg("ignoring invalid gpu vendor override")
	}

	devices, err := ScanPCIDevices(p.Root)
	if err != nil {
		logger.Debug().Err(err).Msg("pci scan failed, assuming no gpu")
		return VendorNone
	}

	v := classify(devices, p.kfdPresent())
	logger.Debug().
		Str(xglog.FieldGPUVendor, string(v)).
		Int("pci_devices", len(devices)).
		Str("source", "pci").
		Msg("gpu vendor detected")
	return v
}

func (p *PCIProbe) kfdPresent() bool {
	if p.KFDPath == "" {
		return false
	}
	_, err := os.Stat(p.KFDPath)
	return err == nil
}

// classify picks the vendor stack from GPU-class devices. NVIDIA wins over
// AMD, AMD over Intel.
func classify(devices []PCIDevice, kfd bool) Vendor {
	seen := map[Vendor]bool{}
	for _, d := range devices {
		if !d.IsGPU() {
			continue
		}
		if v := vendorForID(d.VendorID); v != VendorNone {
			seen[v] = true
		}
	}
	switch {
	case seen[VendorNVIDIA]:
		return VendorNVIDIA
	case seen[VendorAMD] && kfd:
		return VendorAMD
	case seen[VendorIntel]:
		return VendorIntel
	default:
		return VendorNone
	}
}

var (
	defaultOnce  sync.Once
	defaultProbe *PCIProbe
)

// Default returns the process-wide PCI probe.
func Default() Probe {
	defaultOnce.Do(func() {
		defaultProbe = NewPCIProbe()
	})
	return defaultProbe
}
