package sessions

import (
	"context"
	"fmt"
	"time"
)

// Restart modes.
const (
	RestartNever     = "never"
	RestartOnFailure = "on-failure"
)

// RestartPolicy controls automatic restarts after an abnormal exit.
// Attempt n waits n*Backoff.
type RestartPolicy struct {
	Mode       string
	MaxRetries int
	Backoff    time.Duration
}

func (p RestartPolicy) normalize() RestartPolicy {
	if p.Mode == "" {
		p.Mode = RestartNever
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.Backoff <= 0 {
		p.Backoff = 5 * time.Second
	}
	return p
}

// ParseRestartMode validates a restart mode string.
func ParseRestartMode(s string) (string, error) {
	switch s {
	case "", RestartNever:
		return RestartNever, nil
	case RestartOnFailure:
		return RestartOnFailure, nil
	}
	return "", fmt.Errorf("unknown restart mode %q (want %s or %s)", s, RestartNever, RestartOnFailure)
}

// scheduleRetry arms an automatic restart if the policy allows another
// attempt. Must hold e.mu.
func (s *Supervisor) scheduleRetry(e *entry, pub *publisher) bool {
	policy := s.opts.Restart
	if policy.Mode != RestartOnFailure || e.restarts >= policy.MaxRetries || e.deleted {
		return false
	}
	e.cancelRetry()
	e.restarts++

	id := e.spec.ID
	delay := time.Duration(e.restarts) * policy.Backoff
	token := &retryToken{}
	token.timer = time.AfterFunc(delay, func() {
		if err := s.start(context.Background(), id, token); err != nil {
			s.logger.Warn("Automatic restart failed", "session_id", id, "error", err)
		}
	})
	e.retry = token

	pub.log(id, e.appendLog("warning", fmt.Sprintf("restarting in %s (attempt %d/%d)", delay, e.restarts, policy.MaxRetries)))
	s.logger.Info("Automatic restart scheduled", "session_id", id, "attempt", e.restarts, "delay", delay)
	return true
}
