// Package watcher keeps the skill catalog cache warm: it watches all source
// roots with fsnotify and re-runs discovery (debounced) whenever a skill
// tree changes, so the next session start is a guaranteed cache hit.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/skillscan/skillscan/pkg/discovery"
	"github.com/skillscan/skillscan/pkg/logger"
	"github.com/skillscan/skillscan/pkg/sources"
)

// DefaultDebounce batches bursts of filesystem events into one refresh
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-runs discovery when any registered source tree changes
type Watcher struct {
	registry *sources.Registry
	engine   *discovery.Engine
	debounce time.Duration
	// onRefresh is called after every refresh; used by the CLI for
	// progress output and by tests for synchronization
	onRefresh func(*discovery.Result)
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce overrides the event debounce interval
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithRefreshCallback registers a callback invoked after every refresh
func WithRefreshCallback(fn func(*discovery.Result)) Option {
	return func(w *Watcher) {
		w.onRefresh = fn
	}
}

// New creates a watcher over the registry's source trees
func New(registry *sources.Registry, engine *discovery.Engine, opts ...Option) *Watcher {
	w := &Watcher{
		registry: registry,
		engine:   engine,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is cancelled, refreshing the catalog cache whenever
// a source tree changes. fsnotify watches are not recursive, so each source
// root and its existing subdirectories are registered individually; newly
// created subdirectories are picked up on the refresh that their creation
// triggers.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create filesystem watcher")
	}
	defer fw.Close()

	w.addWatches(ctx, fw)

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			logger.G(ctx).WithField("event", event.String()).Debug("source tree changed")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("filesystem watcher error")

		case <-fire:
			res := w.engine.Run(ctx)
			logger.G(ctx).WithField("records", res.RecordCount).Info("catalog refreshed")
			// Re-register watches so directories created since the last
			// pass are covered.
			w.addWatches(ctx, fw)
			if w.onRefresh != nil {
				w.onRefresh(res)
			}
		}
	}
}

func (w *Watcher) addWatches(ctx context.Context, fw *fsnotify.Watcher) {
	for _, src := range w.registry.Sources() {
		if _, err := os.Stat(src.Root); err != nil {
			continue
		}

		_ = filepath.WalkDir(src.Root, func(path string, d os.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if err := fw.Add(path); err != nil {
				logger.G(ctx).WithError(err).WithField("dir", path).Debug("failed to watch directory")
			}
			return nil
		})
	}
}
