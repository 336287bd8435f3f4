// SPDX-License-Identifier: MIT

package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPCIRoot is the standard sysfs location of PCI devices on Linux.
const DefaultPCIRoot = "/sys/bus/pci/devices"

// PCI vendor IDs of GPU vendors.
const (
	PCIVendorNVIDIA = "0x10de"
	PCIVendorAMD    = "0x1002"
	PCIVendorIntel  = "0x8086"
)

// PCIDevice represents a PCI device with its identifiers
type PCIDevice struct {
	VendorID   string `json:"vendor_id"`   // e.g. "0x1002"
	DeviceID   string `json:"device_id"`   // e.g. "0x740f"
	Class      string `json:"class"`       // e.g. "0x030000"
	BusAddress string `json:"bus_address"` // e.g. "0000:03:00.0"
}

// IsGPU reports whether the device class is a display controller (0x03) or a
// processing accelerator (0x12).
func (d PCIDevice) IsGPU() bool {
	c := strings.ToLower(d.Class)
	return strings.HasPrefix(c, "0x03") || strings.HasPrefix(c, "0x12")
}

// Vendor maps the PCI vendor ID to a GPU vendor.
func (d PCIDevice) Vendor() Vendor {
	return vendorForID(d.VendorID)
}

func vendorForID(id string) Vendor {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case PCIVendorNVIDIA:
		return VendorNVIDIA
	case PCIVendorAMD:
		return VendorAMD
	case PCIVendorIntel:
		return VendorIntel
	default:
		return VendorNone
	}
}

// ScanPCIDevices reads all devices below root (normally DefaultPCIRoot).
// Unreadable entries are skipped.
func ScanPCIDevices(root string) ([]PCIDevice, error) {
	if root == "" {
		root = DefaultPCIRoot
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read pci devices: %w", err)
	}

	devices := make([]PCIDevice, 0, len(entries))
	for _, entry := range entries {
		dev, err := readPCIDevice(filepath.Join(root, entry.Name()), entry.Name())
		if err != nil {
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func readPCIDevice(dir, busAddress string) (PCIDevice, error) {
	dev := PCIDevice{BusAddress: busAddress}

	vendor, err := readSysfsValue(filepath.Join(dir, "vendor"))
	if err != nil {
		return dev, err
	}
	dev.VendorID = vendor

	device, err := readSysfsValue(filepath.Join(dir, "device"))
	if err != nil {
		return dev, err
	}
	dev.DeviceID = device

	// class is optional
	if class, err := readSysfsValue(filepath.Join(dir, "class")); err == nil {
		dev.Class = class
	}
	return dev, nil
}

func readSysfsValue(path string) (string, error) {
	// #nosec G304 -- sysfs paths are built from a fixed root
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// GPUs filters devices down to GPU-class devices.
func GPUs(devices []PCIDevice) []PCIDevice {
	var out []PCIDevice
	for _, d := range devices {
		if d.IsGPU() {
			out = append(out, d)
		}
	}
	return out
}
