package metrics

import (
	"github.com/smazurov/relaycast/internal/events"
)

// Session statuses and transition reasons as they appear on the bus.
const (
	statusStopped = "stopped"
	statusLive    = "live"
	statusError   = "error"

	reasonSpawned          = "spawned"
	reasonRequested        = "requested"
	reasonExited           = "exited"
	reasonFailed           = "failed"
	reasonSpawnFailed      = "spawn_failed"
	reasonResolutionFailed = "resolution_failed"
)

// Subscribe feeds the counters and gauges from session events.
// The returned function removes all subscriptions.
func Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.SessionStateChangedEvent) {
			recordTransition(e)
		}),
		bus.Subscribe(func(events.SessionLogEvent) {
			IncLogLines()
		}),
		bus.Subscribe(func(e events.SessionProgressEvent) {
			SetProgress(e.SessionID, Progress{
				Frame:       e.Frame,
				FPS:         e.FPS,
				BitrateKbps: e.BitrateKbps,
				Speed:       e.Speed,
			})
		}),
		bus.Subscribe(func(e events.SessionDeletedEvent) {
			DeleteProgress(e.SessionID)
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func recordTransition(e events.SessionStateChangedEvent) {
	switch {
	case e.To == statusLive && e.Reason == reasonSpawned:
		IncProcessStarts()
		return
	case e.Reason == reasonExited && e.To == statusStopped:
		IncProcessExits(ResultNormal)
	case e.Reason == reasonFailed:
		IncProcessExits(ResultAbnormal)
	case e.Reason == reasonRequested && e.From != statusError:
		IncProcessExits(ResultStopped)
	case e.Reason == reasonSpawnFailed:
		IncProcessExits(ResultSpawnFailed)
	case e.Reason == reasonResolutionFailed:
		IncProcessExits(ResultResolution)
	default:
		return
	}
	if e.To == statusStopped || e.To == statusError {
		DeleteProgress(e.SessionID)
	}
}
