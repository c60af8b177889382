// Package resolver turns remote page URLs into directly playable media URLs
// by delegating to an external extractor.
package resolver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/smazurov/relaycast/internal/logging"
)

// Defaults for YTDLP.
const (
	DefaultBinary  = "yt-dlp"
	DefaultFormat  = "best[protocol^=m3u8]/best"
	DefaultTimeout = 30 * time.Second
)

// ErrNoURL is returned when the extractor succeeds without printing a URL.
var ErrNoURL = errors.New("resolver returned no url")

// Resolver returns a directly playable URL for a remote source.
type Resolver interface {
	Resolve(ctx context.Context, source string) (string, error)
}

// Func adapts a function to Resolver.
type Func func(ctx context.Context, source string) (string, error)

// Resolve implements Resolver.
func (f Func) Resolve(ctx context.Context, source string) (string, error) { return f(ctx, source) }

// Error describes a failed resolution.
type Error struct {
	Source string
	Detail string // last line the extractor wrote to stderr, if any
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("resolve %s: %v: %s", e.Source, e.Err, e.Detail)
	}
	return fmt.Sprintf("resolve %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRemote reports whether source is an http(s) URL that needs resolving.
func IsRemote(source string) bool {
	u, err := url.Parse(strings.TrimSpace(source))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// YTDLP resolves URLs with `yt-dlp -g -f <format> <url>`.
type YTDLP struct {
	Binary  string
	Format  string
	Timeout time.Duration
	Logger  logging.Logger
}

// NewYTDLP returns a YTDLP resolver with defaults filled in.
func NewYTDLP(binary, format string, timeout time.Duration, logger logging.Logger) *YTDLP {
	if binary == "" {
		binary = DefaultBinary
	}
	if format == "" {
		format = DefaultFormat
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &YTDLP{Binary: binary, Format: format, Timeout: timeout, Logger: logger}
}

// Resolve implements Resolver. The first non-empty stdout line is the result.
func (y *YTDLP) Resolve(ctx context.Context, source string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, y.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.Binary, "-g", "-f", y.Format, "--no-playlist", "--no-warnings", source)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	y.Logger.Debug("Resolving source", "source", source, "binary", y.Binary)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", &Error{Source: source, Detail: lastLine(stderr.Bytes()), Err: err}
	}

	resolved := firstLine(stdout.Bytes())
	if resolved == "" {
		return "", &Error{Source: source, Err: ErrNoURL}
	}

	y.Logger.Info("Source resolved", "source", source, "duration", time.Since(started))
	return resolved, nil
}

func firstLine(b []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
