package exporters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smazurov/relaycast/internal/metrics"
)

func TestHTTPHandler(t *testing.T) {
	collector := metrics.NewStatusCollector(func() map[string]int {
		return map[string]int{"live": 1}
	}, "stopped", "live")

	handler := HTTPHandler(collector)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}
	// Registering the same collector again must not panic
	_ = HTTPHandler(collector)

	metrics.SetProgress("http-test-session", metrics.Progress{FPS: 25})
	defer metrics.DeleteProgress("http-test-session")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	for _, want := range []string{
		`relaycast_ffmpeg_fps{session_id="http-test-session"} 25`,
		`relaycast_sessions_by_status{status="live"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %q", want)
		}
	}
}
