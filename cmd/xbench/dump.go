// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/ManuGH/xbench/internal/config"
	"github.com/spf13/cobra"
)

func newDumpCommand(opts *globalOptions) *cobra.Command {
	var (
		file, format, out string
		showSecrets       bool
	)

	cmd := &cobra.Command{
		Use:   "dump -f FILE",
		Short: "Print the effective experiment with every default filled in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return usageErrorf("--file is required")
			}
			f, err := config.ParseFormat(format)
			if err != nil {
				return usageErrorf("%v", err)
			}

			exp, err := config.NewLoader(file, opts.probe).Load()
			if err != nil {
				fmt.Fprintf(opts.stderr, "Configuration error in %s:\n  %v\n", file, err)
				return failed(fmt.Errorf("%s is invalid", file))
			}

			if !showSecrets {
				exp = config.Redacted(exp)
			}
			if out != "" {
				if err := config.WriteFile(out, exp, f); err != nil {
					return failed(err)
				}
				return nil
			}
			data, err := config.Marshal(exp, f)
			if err != nil {
				return failed(err)
			}
			_, err = opts.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the experiment YAML file")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write atomically to this file instead of stdout")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "do not mask tokens and passwords in option maps")
	return cmd
}
