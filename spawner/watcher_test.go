package spawner

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/fyer-pool/logger"
)

func newTestWatcher(t *testing.T, path string) *Watcher {
	t.Helper()
	w, err := NewWatcher(path, WithReloadDelay(50*time.Millisecond), WithWatcherLogger(logger.Nop()))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func receive(t *testing.T, w *Watcher) (Config, bool) {
	t.Helper()
	select {
	case cfg, ok := <-w.Configs():
		return cfg, ok
	case <-time.After(3 * time.Second):
		return Config{}, false
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spawner.yaml")
	writeFile(t, path, "instances: 1\n")
	w := newTestWatcher(t, path)

	writeFile(t, path, "instances: 7\nspeed: 3\n")

	cfg, ok := receive(t, w)
	require.True(t, ok)
	assert.Equal(t, 7, cfg.Instances)
	assert.Equal(t, 3.0, cfg.Speed)
}

func TestWatcher_SkipsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spawner.yaml")
	writeFile(t, path, "instances: 1\n")
	w := newTestWatcher(t, path)

	writeFile(t, filepath.Join(dir, "other.yaml"), "instances: 9\n")
	writeFile(t, path, "instances: -3\n")
	time.Sleep(200 * time.Millisecond)
	writeFile(t, path, "instances: 2\n")

	cfg, ok := receive(t, w)
	require.True(t, ok)
	assert.Equal(t, 2, cfg.Instances)
}

func TestWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spawner.yaml")
	writeFile(t, path, "instances: 1\n")

	w, err := NewWatcher(path, WithWatcherLogger(logger.Nop()))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.Error(t, w.Start())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Configs()
	assert.False(t, ok)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spawner.yaml")
	writeFile(t, path, "instances: 1\n")

	w, err := NewWatcher(path, WithWatcherLogger(logger.Nop()))
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	assert.True(t, w.closed)
	require.NoError(t, w.Stop())
	assert.Error(t, w.Start())
}

func TestWatcher_StopAfterFailedStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "spawner.yaml")

	w, err := NewWatcher(path, WithWatcherLogger(logger.Nop()))
	require.NoError(t, err)
	require.Error(t, w.Start())

	require.NoError(t, w.Stop())
	assert.True(t, w.closed)
}
