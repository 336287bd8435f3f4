// SPDX-License-Identifier: MIT

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GPUInfo is 1 for the GPU stack the host was detected with.
	GPUInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "xbench",
		Subsystem: "gpu",
		Name:      "info",
		Help:      "Detected GPU stack of the host (always 1).",
	}, []string{"vendor", "rocm"})

	// GPUDevices counts GPU-class PCI devices by vendor.
	GPUDevices = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "xbench",
		Subsystem: "gpu",
		Name:      "devices",
		Help:      "Number of GPU-class PCI devices, by vendor.",
	}, []string{"vendor"})
)

// RecordHost publishes the detected GPU stack and per-vendor device counts.
// Earlier values are dropped so the gauges reflect only the latest probe.
func RecordHost(vendor string, rocm bool, devicesByVendor map[string]int) {
	GPUInfo.Reset()
	GPUInfo.WithLabelValues(vendor, strconv.FormatBool(rocm)).Set(1)

	GPUDevices.Reset()
	for v, n := range devicesByVendor {
		GPUDevices.WithLabelValues(v).Set(float64(n))
	}
}
