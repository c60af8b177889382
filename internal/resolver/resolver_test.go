package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBinary writes an executable shell script standing in for yt-dlp.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func TestYTDLPResolve(t *testing.T) {
	// Echo the arguments back so the test can check the invocation.
	bin := fakeBinary(t, `echo; echo "https://cdn.example.com/hls/index.m3u8?args=$*"; echo "https://cdn.example.com/audio"`)
	r := NewYTDLP(bin, "best", time.Second, testLogger())

	got, err := r.Resolve(context.Background(), "https://www.youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !strings.HasPrefix(got, "https://cdn.example.com/hls/index.m3u8") {
		t.Errorf("Resolve() = %q, want first non-empty line", got)
	}
	if !strings.Contains(got, "-g -f best") || !strings.HasSuffix(got, "https://www.youtube.com/watch?v=abc") {
		t.Errorf("unexpected invocation: %q", got)
	}
}

func TestYTDLPResolveFailure(t *testing.T) {
	bin := fakeBinary(t, `echo "WARNING: something" 1>&2; echo "ERROR: Video unavailable" 1>&2; exit 1`)
	r := NewYTDLP(bin, "", time.Second, testLogger())

	_, err := r.Resolve(context.Background(), "https://www.youtube.com/watch?v=gone")
	var resolveErr *Error
	if !errors.As(err, &resolveErr) {
		t.Fatalf("Resolve() error = %v, want *Error", err)
	}
	if resolveErr.Detail != "ERROR: Video unavailable" {
		t.Errorf("Detail = %q", resolveErr.Detail)
	}
}

func TestYTDLPResolveEmptyOutput(t *testing.T) {
	bin := fakeBinary(t, `exit 0`)
	r := NewYTDLP(bin, "", time.Second, testLogger())

	if _, err := r.Resolve(context.Background(), "https://example.com/v"); !errors.Is(err, ErrNoURL) {
		t.Errorf("Resolve() error = %v, want ErrNoURL", err)
	}
}

func TestYTDLPResolveTimeout(t *testing.T) {
	bin := fakeBinary(t, `exec sleep 5`)
	r := NewYTDLP(bin, "", 100*time.Millisecond, testLogger())

	start := time.Now()
	_, err := r.Resolve(context.Background(), "https://example.com/slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Resolve() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Resolve() did not honor timeout")
	}
}

func TestYTDLPMissingBinary(t *testing.T) {
	r := NewYTDLP("/nonexistent/yt-dlp", "", time.Second, testLogger())
	if _, err := r.Resolve(context.Background(), "https://example.com/v"); err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"https://www.youtube.com/watch?v=abc": true,
		"http://example.com/a.mp4":            true,
		" https://example.com/a.mp4":          true,
		"a.mp4":                               false,
		"/srv/videos/a.mp4":                   false,
		"rtmp://example.com/live":             false,
		"https://":                            false,
		"":                                    false,
	}
	for in, want := range tests {
		if got := IsRemote(in); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFunc(t *testing.T) {
	var r Resolver = Func(func(_ context.Context, s string) (string, error) { return s + "/resolved", nil })
	got, _ := r.Resolve(context.Background(), "https://x")
	if got != "https://x/resolved" {
		t.Errorf("Func.Resolve() = %q", got)
	}
}
