package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillscan/skillscan/pkg/cache"
	"github.com/skillscan/skillscan/pkg/discovery"
	"github.com/skillscan/skillscan/pkg/sources"
)

func writeSkill(t *testing.T, root, name, description string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := fmt.Sprintf("---\nname: %s\ndescription: %s\n---\n", name, description)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))
}

func TestWatchRefreshesOnChange(t *testing.T) {
	personal := t.TempDir()
	writeSkill(t, personal, "alpha", "First skill")

	registry, err := sources.NewRegistry(
		sources.WithPersonalDir(personal),
		sources.WithProjectDir(t.TempDir()),
		sources.WithPluginsManifest(filepath.Join(t.TempDir(), "installed_plugins.json")),
	)
	require.NoError(t, err)

	store := cache.NewMemoryStore()
	engine := discovery.New(registry, store, discovery.WithForceRefresh(true))

	refreshed := make(chan *discovery.Result, 4)
	w := New(registry, engine,
		WithDebounce(50*time.Millisecond),
		WithRefreshCallback(func(res *discovery.Result) {
			refreshed <- res
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx)
	}()

	// Give the watcher a moment to register its watches
	time.Sleep(200 * time.Millisecond)

	writeSkill(t, personal, "beta", "Second skill")

	select {
	case res := <-refreshed:
		assert.Equal(t, 2, res.RecordCount)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not refresh after a source change")
	}

	entry, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.RecordCount)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	registry, err := sources.NewRegistry(
		sources.WithPersonalDir(t.TempDir()),
		sources.WithProjectDir(t.TempDir()),
		sources.WithPluginsManifest(filepath.Join(t.TempDir(), "installed_plugins.json")),
	)
	require.NoError(t, err)

	engine := discovery.New(registry, cache.NewMemoryStore())
	w := New(registry, engine)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}
