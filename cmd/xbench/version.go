// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/ManuGH/xbench/internal/config"
	"github.com/ManuGH/xbench/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(opts.stdout, version.String())
		},
	}
}

func newDeprecationsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deprecations",
		Short: "List deprecated experiment fields and their replacements",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(opts.stdout, config.DeprecationSummary())
		},
	}
}
