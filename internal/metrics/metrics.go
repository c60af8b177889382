// Package metrics provides Prometheus metrics for sessions and their ffmpeg children.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "relaycast"

// Exit results recorded by ProcessExits.
const (
	ResultNormal      = "normal"
	ResultAbnormal    = "abnormal"
	ResultStopped     = "stopped"
	ResultSpawnFailed = "spawn_failed"
	ResultResolution  = "resolution_failed"
)

var (
	processStarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "process",
		Name:      "starts_total",
		Help:      "Child processes spawned",
	})

	processExits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "process",
		Name:      "exits_total",
		Help:      "Session runs that ended, by result",
	}, []string{"result"})

	logLines = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "log_lines_total",
		Help:      "Log lines appended across all sessions",
	})

	ffmpegFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "fps",
		Help:      "Current encoding FPS",
	}, []string{"session_id"})

	ffmpegBitrate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "bitrate_kbps",
		Help:      "Current output bitrate in kbit/s",
	}, []string{"session_id"})

	ffmpegSpeed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ffmpeg",
		Name:      "processing_speed",
		Help:      "Processing speed multiplier",
	}, []string{"session_id"})

	// Local cache for API access.
	progressCache   = make(map[string]*Progress)
	progressCacheMu sync.RWMutex
)

// Progress holds the latest ffmpeg progress values for a session.
type Progress struct {
	Frame       int64
	FPS         float64
	BitrateKbps float64
	Speed       float64
}

// IncProcessStarts counts one spawned child.
func IncProcessStarts() {
	processStarts.Inc()
}

// IncProcessExits counts one finished run.
func IncProcessExits(result string) {
	processExits.WithLabelValues(result).Inc()
}

// IncLogLines counts one appended log line.
func IncLogLines() {
	logLines.Inc()
}

// SetProgress records the latest progress for a session.
func SetProgress(sessionID string, p Progress) {
	ffmpegFPS.WithLabelValues(sessionID).Set(p.FPS)
	ffmpegBitrate.WithLabelValues(sessionID).Set(p.BitrateKbps)
	ffmpegSpeed.WithLabelValues(sessionID).Set(p.Speed)

	progressCacheMu.Lock()
	progressCache[sessionID] = &p
	progressCacheMu.Unlock()
}

// DeleteProgress removes all per-session series.
func DeleteProgress(sessionID string) {
	ffmpegFPS.DeleteLabelValues(sessionID)
	ffmpegBitrate.DeleteLabelValues(sessionID)
	ffmpegSpeed.DeleteLabelValues(sessionID)

	progressCacheMu.Lock()
	delete(progressCache, sessionID)
	progressCacheMu.Unlock()
}

// GetProgress returns the latest progress for a session, or nil.
func GetProgress(sessionID string) *Progress {
	progressCacheMu.RLock()
	defer progressCacheMu.RUnlock()
	if p, ok := progressCache[sessionID]; ok {
		dup := *p
		return &dup
	}
	return nil
}
