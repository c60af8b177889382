package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type testConfig struct {
	Name  string `toml:"name"`
	Value int    `toml:"value"`
}

func loadTestConfig(path string) (testConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return testConfig{}, err
	}
	var cfg testConfig
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startWatcher writes initial content and starts a watcher with a short debounce.
func startWatcher(t *testing.T, initial string, opts ...WatcherOption[testConfig]) (*Watcher[testConfig], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatal(err)
	}

	opts = append([]WatcherOption[testConfig]{WithDebounce[testConfig](50 * time.Millisecond)}, opts...)
	w := NewWatcher(path, loadTestConfig, newTestLogger(), opts...)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return w, path
}

func TestWatcherReloadOnWrite(t *testing.T) {
	w, path := startWatcher(t, "name = \"initial\"\nvalue = 1\n")

	received := make(chan testConfig, 1)
	w.OnReload(func(cfg testConfig) { received <- cfg })

	if err := os.WriteFile(path, []byte("name = \"updated\"\nvalue = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Name != "updated" || cfg.Value != 2 {
			t.Errorf("got %+v", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcherReloadOnAtomicReplace(t *testing.T) {
	w, path := startWatcher(t, "name = \"initial\"\n")

	received := make(chan testConfig, 4)
	w.OnReload(func(cfg testConfig) { received <- cfg })

	// Replace twice; the second replace only works if the watch survived the first.
	for _, name := range []string{"first", "second"} {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, []byte("name = \""+name+"\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(tmp, path); err != nil {
			t.Fatal(err)
		}

		select {
		case cfg := <-received:
			if cfg.Name != name {
				t.Errorf("got %q, want %q", cfg.Name, name)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for reload of %q", name)
		}
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	w, path := startWatcher(t, "name = \"initial\"\n")

	var calls atomic.Int32
	w.OnReload(func(testConfig) { calls.Add(1) })

	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.toml"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("handler called %d times for unrelated file", n)
	}
}

func TestWatcherDebounce(t *testing.T) {
	w, path := startWatcher(t, "value = 0\n", WithDebounce[testConfig](200*time.Millisecond))

	var calls atomic.Int32
	var last atomic.Int64
	w.OnReload(func(cfg testConfig) {
		calls.Add(1)
		last.Store(int64(cfg.Value))
	})

	for i := 1; i <= 5; i++ {
		if err := os.WriteFile(path, []byte("value = "+string(rune('0'+i))+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(600 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
	if v := last.Load(); v != 5 {
		t.Errorf("last value = %d, want 5", v)
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	w, path := startWatcher(t, "value = 0\n")

	var first, second atomic.Int32
	unsub := w.OnReload(func(testConfig) { first.Add(1) })
	done := make(chan struct{}, 1)
	w.OnReload(func(testConfig) {
		second.Add(1)
		done <- struct{}{}
	})
	unsub()

	if err := os.WriteFile(path, []byte("value = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
	if first.Load() != 0 {
		t.Error("unsubscribed handler was called")
	}
}

func TestWatcherErrorHandler(t *testing.T) {
	errorReceived := make(chan error, 1)
	w, path := startWatcher(t, "name = \"valid\"\n", WithErrorHandler[testConfig](func(err error) {
		errorReceived <- err
	}))

	configReceived := make(chan testConfig, 1)
	w.OnReload(func(cfg testConfig) { configReceived <- cfg })

	if err := os.WriteFile(path, []byte("invalid toml [[["), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errorReceived:
	case <-configReceived:
		t.Fatal("config handler should not be called on error")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestWatcherStopBeforeStart(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "x.toml"), loadTestConfig, newTestLogger())
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestWatcherStartMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing", "x.toml"), loadTestConfig, newTestLogger())
	if err := w.Start(); err == nil {
		_ = w.Stop()
		t.Error("expected error for missing directory")
	}
}
