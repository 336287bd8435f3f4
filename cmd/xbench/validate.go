// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"sort"

	"github.com/ManuGH/xbench/internal/config"
	"github.com/spf13/cobra"
)

func newValidateCommand(opts *globalOptions) *cobra.Command {
	var (
		file    string
		showEnv bool
	)

	cmd := &cobra.Command{
		Use:   "validate -f FILE",
		Short: "Validate an experiment file",
		Long: `Loads the experiment file strictly, applies XBENCH_* environment
overrides and normalizes it. Exits 1 with every validation failure listed
when the experiment is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return usageErrorf("--file is required")
			}

			exp, err := config.NewLoader(file, opts.probe).Load()
			if err != nil {
				fmt.Fprintf(opts.stderr, "Configuration error in %s:\n  %v\n", file, err)
				return failed(fmt.Errorf("%s is invalid", file))
			}

			fmt.Fprintf(opts.stdout, "✓ %s is valid\n", file)
			if showEnv {
				env := exp.Backend.VisibleDevicesEnv(opts.probe)
				keys := make([]string, 0, len(env))
				for k := range env {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(opts.stdout, "%s=%s\n", k, env[k])
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the experiment YAML file")
	cmd.Flags().BoolVar(&showEnv, "show-env", false, "print the device visibility environment for the backend")
	return cmd
}
