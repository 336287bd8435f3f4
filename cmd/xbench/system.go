// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ManuGH/xbench/internal/metrics"
	"github.com/ManuGH/xbench/internal/system"
	"github.com/spf13/cobra"
)

// visibilityVars are reported by `xbench system` when set.
var visibilityVars = []string{
	"CUDA_DEVICE_ORDER",
	"CUDA_VISIBLE_DEVICES",
	"HIP_VISIBLE_DEVICES",
	"ROCR_VISIBLE_DEVICES",
}

func newSystemCommand(opts *globalOptions) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "system",
		Short: "Show the detected GPU stack and PCI GPUs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(opts.stdout, "gpu vendor: %s\n", opts.probe.Vendor())
			fmt.Fprintf(opts.stdout, "rocm:       %t\n", opts.probe.IsROCm())

			for _, k := range visibilityVars {
				if v, ok := os.LookupEnv(k); ok {
					fmt.Fprintf(opts.stdout, "%s=%s\n", k, v)
				}
			}

			gpus, err := publishHost(opts.probe, root)
			if err != nil {
				fmt.Fprintf(opts.stdout, "pci scan unavailable: %v\n", err)
				return nil
			}
			if len(gpus) == 0 {
				fmt.Fprintln(opts.stdout, "no GPU-class PCI devices")
				return nil
			}

			tw := tabwriter.NewWriter(opts.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ADDRESS\tVENDOR\tVENDOR ID\tDEVICE ID\tCLASS")
			for _, d := range gpus {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.BusAddress, d.Vendor(), d.VendorID, d.DeviceID, d.Class)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&root, "sysfs-root", system.DefaultPCIRoot, "PCI devices directory to scan")
	_ = cmd.Flags().MarkHidden("sysfs-root")
	return cmd
}

// publishHost scans root for GPUs and exports the host GPU gauges. The
// vendor gauge is published even when the scan fails.
func publishHost(probe system.Probe, root string) ([]system.PCIDevice, error) {
	devices, err := system.ScanPCIDevices(root)
	gpus := system.GPUs(devices)

	counts := map[string]int{}
	for _, d := range gpus {
		counts[string(d.Vendor())]++
	}
	metrics.RecordHost(string(probe.Vendor()), probe.IsROCm(), counts)
	return gpus, err
}
