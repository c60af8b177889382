package events

// Event type constants for kelindar/event.
const (
	TypeSessionCreated uint32 = iota + 1
	TypeSessionUpdated
	TypeSessionDeleted
	TypeSessionStateChanged
	TypeSessionLog
	TypeSessionProgress
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionCreatedEvent is published after a session is added to the registry.
type SessionCreatedEvent struct {
	SessionID string `json:"session_id" example:"7f9c2ba4-e88f-4c3e-9a6b-1f2d3c4b5a69" doc:"Session identifier"`
	Title     string `json:"title" example:"Sunday service" doc:"Session title"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionCreatedEvent.
func (e SessionCreatedEvent) Type() uint32 { return TypeSessionCreated }

// SessionUpdatedEvent is published after a configuration update is applied.
type SessionUpdatedEvent struct {
	SessionID string `json:"session_id" example:"7f9c2ba4-e88f-4c3e-9a6b-1f2d3c4b5a69" doc:"Session identifier"`
	Title     string `json:"title" example:"Sunday service" doc:"Session title"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionUpdatedEvent.
func (e SessionUpdatedEvent) Type() uint32 { return TypeSessionUpdated }

// SessionDeletedEvent is published after a session is removed.
type SessionDeletedEvent struct {
	SessionID string `json:"session_id" example:"7f9c2ba4-e88f-4c3e-9a6b-1f2d3c4b5a69" doc:"Deleted session identifier"`
	Status    string `json:"status" example:"stopped" doc:"Status at deletion"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionDeletedEvent.
func (e SessionDeletedEvent) Type() uint32 { return TypeSessionDeleted }

// SessionStateChangedEvent is published on every status transition.
type SessionStateChangedEvent struct {
	SessionID string `json:"session_id" example:"7f9c2ba4-e88f-4c3e-9a6b-1f2d3c4b5a69" doc:"Session identifier"`
	From      string `json:"from" example:"starting" doc:"Previous status"`
	To        string `json:"to" example:"live" doc:"New status"`
	Reason    string `json:"reason" example:"exited" doc:"What caused the transition"`
	Error     string `json:"error,omitempty" example:"process exited with code 1" doc:"Error that caused the transition"`
	PID       int    `json:"pid,omitempty" example:"4242" doc:"Child process id while live"`
	Retrying  bool   `json:"retrying,omitempty" example:"false" doc:"An automatic restart is scheduled"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// SessionLogEvent carries one (redacted) session log line.
type SessionLogEvent struct {
	SessionID string `json:"session_id" example:"7f9c2ba4-e88f-4c3e-9a6b-1f2d3c4b5a69" doc:"Session identifier"`
	Level     string `json:"level" example:"info" doc:"Log level"`
	Line      string `json:"line" example:"2025-01-27 10:30:00 frame=  250 fps= 30" doc:"Timestamped log line"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionLogEvent.
func (e SessionLogEvent) Type() uint32 { return TypeSessionLog }

// SessionProgressEvent carries transcoder progress parsed from a status line.
type SessionProgressEvent struct {
	SessionID   string  `json:"session_id"`
	Frame       int64   `json:"frame"`
	FPS         float64 `json:"fps"`
	BitrateKbps float64 `json:"bitrate_kbps"`
	Speed       float64 `json:"speed"`
}

// Type returns the event type identifier for SessionProgressEvent.
func (e SessionProgressEvent) Type() uint32 { return TypeSessionProgress }
