package ffmpeg

import "testing"

func TestParseLine(t *testing.T) {
	tests := []struct {
		raw       string
		level     string
		component string
		text      string
	}{
		{"[info] Stream mapping:", "info", "", "Stream mapping:"},
		{"[error] Connection refused", "error", "", "Connection refused"},
		{"[fatal] Conversion failed!", "error", "", "Conversion failed!"},
		{"[verbose] Opening an output file", "debug", "", "Opening an output file"},
		{"[flv @ 0x55d0c0] [warning] Failed to update header", "warning", "flv @ 0x55d0c0", "Failed to update header"},
		{
			"[tls @ 0x1f2e] [error] rtmp://a.rtmp.youtube.com/live2/[REDACTED]: I/O error",
			"error", "tls @ 0x1f2e", "rtmp://a.rtmp.youtube.com/live2/[REDACTED]: I/O error",
		},
		{"[tls @ 0x1] handshake", "info", "", "[tls @ 0x1] handshake"},
		{"[REDACTED] leaked", "info", "", "[REDACTED] leaked"},
		{"frame=  250 fps= 30 q=28.0 size=    1024kB", "info", "", "frame=  250 fps= 30 q=28.0 size=    1024kB"},
		{"[]", "info", "", "[]"},
	}

	for _, tt := range tests {
		got := ParseLine(tt.raw)
		if got.Level != tt.level || got.Component != tt.component || got.Text != tt.text {
			t.Errorf("ParseLine(%q) = %+v, want {%s %q %q}", tt.raw, got, tt.level, tt.component, tt.text)
		}
	}
}

func TestParseLogLevelKeepsComponent(t *testing.T) {
	level, msg := ParseLogLevel("[flv @ 0x55d0c0] [warning] Failed to update header")
	if level != "warning" || msg != "[flv @ 0x55d0c0] Failed to update header" {
		t.Errorf("ParseLogLevel() = (%q, %q)", level, msg)
	}

	level, msg = ParseLogLevel("[debug] probing")
	if level != "debug" || msg != "probing" {
		t.Errorf("ParseLogLevel() = (%q, %q)", level, msg)
	}
}
