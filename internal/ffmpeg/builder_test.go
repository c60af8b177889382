package ffmpeg

import (
	"slices"
	"strings"
	"testing"
)

func baseParams() *Params {
	return &Params{
		Source:      "a.mp4",
		Loop:        true,
		BitrateKbps: 1500,
		Width:       854,
		Height:      480,
		FPS:         30,
		OutputURL:   "rtmp://a.rtmp.youtube.com/live2/K",
		Options:     []OptionType{OptionNativeRate},
	}
}

func TestBuildArgs(t *testing.T) {
	args, err := BuildArgs(baseParams())
	if err != nil {
		t.Fatalf("BuildArgs() error = %v", err)
	}

	want := "-hide_banner -loglevel level+info -nostdin -re -stream_loop -1 -i a.mp4 " +
		"-c:v libx264 -preset veryfast -b:v 1500k -maxrate 1500k -bufsize 3000k " +
		"-g 60 -keyint_min 60 -sc_threshold 0 -r 30 -vf scale=854:480 -pix_fmt yuv420p " +
		"-c:a aac -b:a 128k -ar 44100 -f flv rtmp://a.rtmp.youtube.com/live2/K"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("BuildArgs() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildArgsDeterministic(t *testing.T) {
	a, _ := BuildArgs(baseParams())
	b, _ := BuildArgs(baseParams())
	if !slices.Equal(a, b) {
		t.Errorf("BuildArgs() not deterministic:\n%v\n%v", a, b)
	}
}

func TestBuildArgsRemoteSourceSkipsLoop(t *testing.T) {
	p := baseParams()
	p.Source = "https://cdn.example.com/live/index.m3u8"
	p.Options = append(p.Options, OptionReconnect)

	args, err := BuildArgs(p)
	if err != nil {
		t.Fatalf("BuildArgs() error = %v", err)
	}
	if slices.Contains(args, "-stream_loop") {
		t.Errorf("remote source should not loop: %v", args)
	}
	if !slices.Contains(args, "-reconnect") {
		t.Errorf("reconnect option missing: %v", args)
	}
	if args[len(args)-1] != p.OutputURL {
		t.Errorf("output url must be last, got %q", args[len(args)-1])
	}
}

func TestBuildArgsExplicitGOPAndLowLatency(t *testing.T) {
	p := baseParams()
	p.GOP = 48
	p.Options = []OptionType{OptionLowLatency}

	args, err := BuildArgs(p)
	if err != nil {
		t.Fatalf("BuildArgs() error = %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-g 48 -keyint_min 48") {
		t.Errorf("explicit GOP not used: %s", joined)
	}
	if !strings.Contains(joined, "-tune zerolatency") {
		t.Errorf("low latency tune missing: %s", joined)
	}
	if slices.Contains(args, "-re") {
		t.Errorf("-re present without native rate option: %s", joined)
	}
}

func TestBuildArgsValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"missing source", func(p *Params) { p.Source = "" }},
		{"missing output", func(p *Params) { p.OutputURL = "" }},
		{"zero bitrate", func(p *Params) { p.BitrateKbps = 0 }},
		{"zero size", func(p *Params) { p.Width = 0 }},
		{"zero fps", func(p *Params) { p.FPS = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.modify(p)
			if _, err := BuildArgs(p); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestBuildCommand(t *testing.T) {
	argv, err := BuildCommand("", baseParams())
	if err != nil {
		t.Fatalf("BuildCommand() error = %v", err)
	}
	if argv[0] != Binary {
		t.Errorf("argv[0] = %q, want %q", argv[0], Binary)
	}

	argv, _ = BuildCommand("/opt/ffmpeg/bin/ffmpeg", baseParams())
	if argv[0] != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("argv[0] = %q, want custom binary", argv[0])
	}
}

func TestIsNetworkURL(t *testing.T) {
	tests := map[string]bool{
		"a.mp4":                      false,
		"/srv/videos/a.mp4":          false,
		"file:///srv/a.mp4":          false,
		"https://example.com/a.m3u8": true,
		"rtmp://example.com/live/x":  true,
	}
	for in, want := range tests {
		if got := IsNetworkURL(in); got != want {
			t.Errorf("IsNetworkURL(%q) = %v, want %v", in, got, want)
		}
	}
}
