// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ManuGH/xbench/internal/log"
	"golang.org/x/net/netutil"
)

const (
	// ShutdownTimeout bounds how long Serve waits for in-flight requests.
	ShutdownTimeout = 5 * time.Second
	// MaxConns caps concurrent connections to the watch mode API.
	MaxConns = 64
)

// Serve runs handler on ln until ctx is done, then shuts down gracefully.
// A clean shutdown returns nil.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	logger := log.WithComponent("api")
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	ln = netutil.LimitListener(ln, MaxConns)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str(log.FieldEvent, "api.listening").
			Str("addr", ln.Addr().String()).
			Msg("serving experiment API")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	logger.Info().Str(log.FieldEvent, "api.shutdown").Msg("shutting down experiment API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
