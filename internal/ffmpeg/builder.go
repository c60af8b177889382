package ffmpeg

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Binary is the default transcoder executable.
const Binary = "ffmpeg"

// Base returns the global flags every command starts with. The level+info
// log level prefixes each line with [level] for ParseLogLevel.
func Base() []string {
	return []string{"-hide_banner", "-loglevel", "level+info", "-nostdin"}
}

// Validate checks the fields BuildArgs cannot default.
func (p *Params) Validate() error {
	var errs []error
	if p.Source == "" {
		errs = append(errs, errors.New("source is required"))
	}
	if p.OutputURL == "" {
		errs = append(errs, errors.New("output url is required"))
	}
	if p.BitrateKbps <= 0 {
		errs = append(errs, fmt.Errorf("invalid bitrate %d", p.BitrateKbps))
	}
	if p.Width <= 0 || p.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", p.Width, p.Height))
	}
	if p.FPS <= 0 {
		errs = append(errs, fmt.Errorf("invalid fps %d", p.FPS))
	}
	return errors.Join(errs...)
}

// BuildArgs builds the argv (without the binary) that pushes Source to
// OutputURL. Output is deterministic for equal Params.
func BuildArgs(p *Params) ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	args := Base()

	// Input
	args = append(args, inputArgs(p.Options)...)
	if p.Loop && !IsNetworkURL(p.Source) {
		args = append(args, "-stream_loop", "-1")
	}
	args = append(args, "-i", p.Source)

	// Video
	encoder := orDefault(p.Encoder, "libx264")
	args = append(args,
		"-c:v", encoder,
		"-preset", orDefault(p.Preset, "veryfast"),
	)
	if slices.Contains(p.Options, OptionLowLatency) && encoder == "libx264" {
		args = append(args, "-tune", "zerolatency")
	}

	bitrate := kbps(p.BitrateKbps)
	args = append(args,
		"-b:v", bitrate,
		"-maxrate", bitrate,
		"-bufsize", kbps(2*p.BitrateKbps),
	)

	gop := p.GOP
	if gop <= 0 {
		gop = 2 * p.FPS
	}
	args = append(args,
		"-g", strconv.Itoa(gop),
		"-keyint_min", strconv.Itoa(gop),
		"-sc_threshold", "0",
		"-r", strconv.Itoa(p.FPS),
		"-vf", fmt.Sprintf("scale=%d:%d", p.Width, p.Height),
		"-pix_fmt", "yuv420p",
	)

	// Audio
	audioBitrate := p.AudioBitrateKbps
	if audioBitrate <= 0 {
		audioBitrate = 128
	}
	sampleRate := p.SampleRate
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	args = append(args,
		"-c:a", "aac",
		"-b:a", kbps(audioBitrate),
		"-ar", strconv.Itoa(sampleRate),
	)

	// Output
	args = append(args, "-f", "flv", p.OutputURL)

	return args, nil
}

// BuildCommand returns the full argv including the binary.
func BuildCommand(binary string, p *Params) ([]string, error) {
	args, err := BuildArgs(p)
	if err != nil {
		return nil, err
	}
	return append([]string{orDefault(binary, Binary)}, args...), nil
}

// IsNetworkURL reports whether s is a URL ffmpeg opens over the network.
func IsNetworkURL(s string) bool {
	i := strings.Index(s, "://")
	return i > 0 && !strings.HasPrefix(s, "file://")
}

func kbps(n int) string {
	return strconv.Itoa(n) + "k"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
