package ffmpeg

import (
	"strconv"
	"strings"
)

// Progress is one parsed ffmpeg status line:
//
//	frame=  250 fps= 30 q=28.0 size=    1024kB time=00:00:08.33 bitrate=1006.7kbits/s speed=1.0x
type Progress struct {
	Frame       int64
	FPS         float64
	BitrateKbps float64
	Speed       float64
}

// ParseProgress parses a status line. ok is false for any other line.
func ParseProgress(line string) (p Progress, ok bool) {
	if !strings.Contains(line, "frame=") || !strings.Contains(line, "speed=") {
		return Progress{}, false
	}

	fields := progressFields(line)

	if v, found := fields["frame"]; found {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.Frame = n
			ok = true
		}
	}
	if v, found := fields["fps"]; found {
		p.FPS, _ = strconv.ParseFloat(v, 64)
	}
	if v, found := fields["bitrate"]; found {
		p.BitrateKbps, _ = strconv.ParseFloat(strings.TrimSuffix(v, "kbits/s"), 64)
	}
	if v, found := fields["speed"]; found {
		p.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
	}
	return p, ok
}

// progressFields splits "key= value key=value" pairs; ffmpeg pads values
// with spaces after the '='.
func progressFields(line string) map[string]string {
	fields := make(map[string]string)
	rest := line
	for {
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			return fields
		}
		key := rest[:eq]
		if sp := strings.LastIndexAny(key, " ]"); sp >= 0 {
			key = key[sp+1:]
		}
		rest = strings.TrimLeft(rest[eq+1:], " ")

		end := strings.IndexByte(rest, ' ')
		if end < 0 {
			fields[key] = rest
			return fields
		}
		fields[key] = rest[:end]
		rest = rest[end:]
	}
}
