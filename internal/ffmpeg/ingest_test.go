package ffmpeg

import (
	"strings"
	"testing"
)

func TestIngestURL(t *testing.T) {
	tests := []struct {
		base, key, want string
		wantErr         bool
	}{
		{YouTubeIngest, "abcd-1234", "rtmp://a.rtmp.youtube.com/live2/abcd-1234", false},
		{FacebookIngest, "FB-1", "rtmps://live-api-s.facebook.com:443/rtmp/FB-1", false},
		{"rtmp://local/app/", "k", "rtmp://local/app/k", false},
		{YouTubeIngest, "", "", true},
		{"", "k", "", true},
	}

	for _, tt := range tests {
		got, err := IngestURL(tt.base, tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("IngestURL(%q, %q) error = %v, wantErr %v", tt.base, tt.key, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("IngestURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

func TestRedactArgs(t *testing.T) {
	args := []string{"-i", "a.mp4", "-f", "flv", "rtmp://a.rtmp.youtube.com/live2/SECRETKEY"}
	redacted := RedactArgs(args, "SECRETKEY")

	if strings.Contains(strings.Join(redacted, " "), "SECRETKEY") {
		t.Errorf("secret leaked: %v", redacted)
	}
	if redacted[4] != "rtmp://a.rtmp.youtube.com/live2/"+Redacted {
		t.Errorf("redacted url = %q", redacted[4])
	}
	if args[4] != "rtmp://a.rtmp.youtube.com/live2/SECRETKEY" {
		t.Error("RedactArgs modified its input")
	}
}

func TestRedactEmptySecret(t *testing.T) {
	if got := Redact("nothing to hide", ""); got != "nothing to hide" {
		t.Errorf("Redact with empty secret = %q", got)
	}
}

func TestQuoteArgs(t *testing.T) {
	got := QuoteArgs([]string{"ffmpeg", "-i", "my video.mp4", "-vf", "scale=1280:720"})
	want := `ffmpeg -i "my video.mp4" -vf scale=1280:720`
	if got != want {
		t.Errorf("QuoteArgs() = %s, want %s", got, want)
	}
}
