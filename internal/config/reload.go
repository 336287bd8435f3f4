// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	xglog "github.com/ManuGH/xbench/internal/log"
	"github.com/ManuGH/xbench/internal/metrics"
	"github.com/ManuGH/xbench/internal/telemetry"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// DefaultDebounce is the quiet period after a file event before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Holder holds the last valid experiment with atomic reloading capability.
type Holder struct {
	mu      sync.RWMutex
	current Experiment
	loader  *Loader
	logger  zerolog.Logger

	// Debounce overrides DefaultDebounce when non-zero. Set before StartWatcher.
	Debounce time.Duration
	// ReloadLimiter, when set, bounds how often file changes trigger a
	// reload. Set before StartWatcher.
	ReloadLimiter *rate.Limiter

	watcher *fsnotify.Watcher
	done    chan struct{}
	// reloadMu serializes Reload calls.
	reloadMu sync.Mutex

	lastReload    time.Time
	lastReloadErr error

	listenersMu sync.RWMutex
	listeners   []chan<- Experiment
}

// NewHolder creates a holder serving initial until the first successful reload.
func NewHolder(initial Experiment, loader *Loader) *Holder {
	return &Holder{
		current: initial,
		loader:  loader,
		logger:  xglog.WithComponent("reload"),
	}
}

// Get returns the current experiment (thread-safe read).
func (h *Holder) Get() Experiment {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// LastReload returns when the latest reload ran and its error. The time is
// zero until the first reload.
func (h *Holder) LastReload() (time.Time, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastReload, h.lastReloadErr
}

// Reload loads and normalizes the experiment file. On failure the previous
// experiment is kept and the error returned.
func (h *Holder) Reload(ctx context.Context) (err error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	reloadID := uuid.NewString()
	ctx = xglog.ContextWithReloadID(ctx, reloadID)
	_, span := telemetry.Tracer("xbench/config").Start(ctx, "config.reload")
	span.SetAttributes(
		attribute.String(telemetry.ReloadIDKey, reloadID),
		attribute.String(telemetry.ConfigPathKey, h.loader.Path()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	logger := xglog.WithContext(ctx, h.logger)
	logger.Info().Str(xglog.FieldEvent, "config.reload_start").Msg("reloading experiment")

	next, err := h.loader.Load()
	metrics.RecordReload(err)
	h.mu.Lock()
	h.lastReload, h.lastReloadErr = time.Now(), err
	h.mu.Unlock()
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.reload_failed").
			Msg("keeping previous experiment")
		return fmt.Errorf("reload: %w", err)
	}

	h.mu.Lock()
	changes := Diff(h.current, next)
	h.current = next
	h.mu.Unlock()

	h.notifyListeners(next)
	span.SetAttributes(telemetry.ExperimentAttributes(next.Name, next.Backend.Name, next.Benchmark.Name, next.Backend.Device)...)

	logger.Info().
		Str(xglog.FieldEvent, "config.reload_success").
		Str("experiment", next.Name).
		Strs("changed_fields", changes.ChangedFields).
		Msg("experiment reloaded")
	return nil
}

// StartWatcher watches the experiment file and reloads it after changes.
// The parent directory is watched so editors that replace the file by
// rename keep triggering reloads. The watcher stops when ctx is done.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str(xglog.FieldEvent, "config.watcher_disabled").
			Msg("no experiment file to watch")
		return nil
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	h.watcher = watcher
	h.done = make(chan struct{})

	h.logger.Info().
		Str(xglog.FieldEvent, "config.watcher_started").
		Str(xglog.FieldPath, path).
		Msg("watching experiment file for changes")

	go h.watchLoop(ctx, path)
	return nil
}

// Wait blocks until the watcher goroutine has exited.
func (h *Holder) Wait() {
	if h.done != nil {
		<-h.done
	}
}

func (h *Holder) watchLoop(ctx context.Context, path string) {
	defer close(h.done)
	defer func() { _ = h.watcher.Close() }()

	debounce := h.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	// reloads run on this goroutine, one at a time
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(xglog.FieldEvent, "config.watcher_stopped").Msg("experiment watcher stopped")
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(xglog.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("experiment file changed")

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if h.ReloadLimiter != nil {
				if err := h.ReloadLimiter.Wait(ctx); err != nil {
					return
				}
			}
			// the error is logged and counted by Reload
			_ = h.Reload(ctx)

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "config.watcher_error").
				Msg("experiment watcher error")
		}
	}
}

// RegisterListener registers a channel receiving every successfully
// reloaded experiment. Sends never block; a full channel misses the update.
func (h *Holder) RegisterListener(ch chan<- Experiment) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notifyListeners(exp Experiment) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()

	for _, ch := range h.listeners {
		select {
		case ch <- exp:
		default:
			h.logger.Warn().
				Str(xglog.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}
