package ffmpeg

import "testing"

func TestParseProgress(t *testing.T) {
	line := "[info] frame=  250 fps= 30 q=28.0 size=    1024kB time=00:00:08.33 bitrate=1006.7kbits/s speed=1.01x"

	p, ok := ParseProgress(line)
	if !ok {
		t.Fatal("ParseProgress() ok = false")
	}
	if p.Frame != 250 {
		t.Errorf("Frame = %d, want 250", p.Frame)
	}
	if p.FPS != 30 {
		t.Errorf("FPS = %v, want 30", p.FPS)
	}
	if p.BitrateKbps != 1006.7 {
		t.Errorf("BitrateKbps = %v, want 1006.7", p.BitrateKbps)
	}
	if p.Speed != 1.01 {
		t.Errorf("Speed = %v, want 1.01", p.Speed)
	}
}

func TestParseProgressNA(t *testing.T) {
	p, ok := ParseProgress("frame=    0 fps=0.0 q=0.0 size=       0kB time=00:00:00.00 bitrate=N/A speed=N/A")
	if !ok {
		t.Fatal("ParseProgress() ok = false")
	}
	if p.BitrateKbps != 0 || p.Speed != 0 {
		t.Errorf("N/A values should parse as zero, got %+v", p)
	}
}

func TestParseProgressIgnoresOtherLines(t *testing.T) {
	for _, line := range []string{
		"[info] Stream mapping:",
		"Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'a.mp4':",
		"",
	} {
		if _, ok := ParseProgress(line); ok {
			t.Errorf("ParseProgress(%q) ok = true", line)
		}
	}
}
