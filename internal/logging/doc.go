// Package logging provides structured logging with per-module log levels.
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"supervisor": "debug",
//			"ffmpeg":     "warn",
//		},
//	})
//
// Get a logger for your module and add context:
//
//	logger := logging.GetLogger("supervisor").With("session_id", id)
//	logger.Info("Session live", "pid", pid)
//
// Records go to stdout (text or json) and, when journald is reachable,
// to the systemd journal under the "relaycast" identifier:
//
//	journalctl -t relaycast MODULE=supervisor
//	journalctl -t relaycast SESSION_ID=<id> -f
//
// RingBuffer is the bounded, oldest-evicted history used for per-session
// transcoder output.
package logging
