// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	xglog "github.com/ManuGH/xbench/internal/log"
	"github.com/ManuGH/xbench/internal/system"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func failed(err error) error {
	return &exitError{code: exitInvalid, err: err}
}

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	LogLevel  string
	LogFormat string
	GPUVendor string

	stdout io.Writer
	stderr io.Writer
	probe  system.Probe
}

// newRootCommand builds the xbench command tree writing to stdout and stderr.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "xbench",
		Short: "xbench - benchmark experiment configuration",
		Long: `xbench validates and normalizes benchmark experiment files.

An experiment names a PyTorch backend and an inference benchmark. xbench
fills documented defaults, checks cross-field consistency and refuses
settings the host GPU stack cannot run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "",
		"log level: debug, info, warn, error (default from LOG_LEVEL, else info)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "console",
		"log format: console or json")
	cmd.PersistentFlags().StringVar(&opts.GPUVendor, "gpu-vendor", "",
		"override GPU detection: nvidia, amd, intel or none")

	cmd.AddCommand(
		newValidateCommand(opts),
		newDumpCommand(opts),
		newWatchCommand(opts),
		newSystemCommand(opts),
		newDeprecationsCommand(opts),
		newVersionCommand(opts),
	)
	return cmd
}

// init configures logging and resolves the GPU probe once flags are parsed.
func (o *globalOptions) init() error {
	switch o.LogFormat {
	case "console", "json":
	default:
		return usageErrorf("invalid --log-format %q (use console or json)", o.LogFormat)
	}
	xglog.Reconfigure(xglog.Config{
		Level:   o.LogLevel,
		Output:  o.stderr,
		Service: "xbench",
		Console: o.LogFormat == "console",
	})

	if o.GPUVendor == "" {
		o.probe = system.Default()
		return nil
	}
	v, err := system.ParseVendor(o.GPUVendor)
	if err != nil {
		return usageErrorf("invalid --gpu-vendor: %v", err)
	}
	o.probe = system.Static(v)
	return nil
}

// run executes the CLI and maps the outcome to an exit code. Errors cobra
// raises itself (unknown commands, bad flags) are usage errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}
