package process

import "time"

// Info is a point-in-time view of a Process.
type Info struct {
	ID        string
	PID       int
	StartedAt time.Time
	Running   bool
	ExitCode  int
}

// Info returns a snapshot of the process.
func (p *Process) Info() Info {
	running := false
	select {
	case <-p.done:
	default:
		running = p.PID() != 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	info := Info{
		ID:        p.id,
		StartedAt: p.startedAt,
		Running:   running,
		ExitCode:  p.exitCode,
	}
	if p.cmd != nil && p.cmd.Process != nil {
		info.PID = p.cmd.Process.Pid
	}
	return info
}
