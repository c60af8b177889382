package ffmpeg

import (
	"fmt"
	"strings"
)

// Default ingest base URLs. The stream key is appended after a slash.
const (
	YouTubeIngest  = "rtmp://a.rtmp.youtube.com/live2"
	FacebookIngest = "rtmps://live-api-s.facebook.com:443/rtmp"
)

// Redacted replaces secrets in logs and echoed commands.
const Redacted = "[REDACTED]"

// IngestURL joins a base ingest URL and a stream key.
func IngestURL(base, key string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("ingest base url is empty")
	}
	if key == "" {
		return "", fmt.Errorf("stream key is empty")
	}
	return strings.TrimRight(base, "/") + "/" + key, nil
}

// RedactArgs returns a copy of args with every occurrence of secret masked.
func RedactArgs(args []string, secret string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = Redact(arg, secret)
	}
	return out
}

// Redact masks every occurrence of secret in s. An empty secret leaves s unchanged.
func Redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, Redacted)
}

// QuoteArgs renders argv for display, quoting arguments that contain spaces.
func QuoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			quoted[i] = fmt.Sprintf("%q", arg)
		} else {
			quoted[i] = arg
		}
	}
	return strings.Join(quoted, " ")
}
