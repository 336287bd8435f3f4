// SPDX-License-Identifier: MIT

// xbench validates, normalizes and serves benchmark experiment files.
//
// Usage:
//
//	xbench validate -f experiment.yaml
//	xbench dump -f experiment.yaml --format json --out effective.json
//	xbench watch -f experiment.yaml --listen 127.0.0.1:9464
//	xbench system
//
// Exit codes:
//   - 0: success, the experiment is valid
//   - 1: the experiment is invalid or the command failed
//   - 2: usage error
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
