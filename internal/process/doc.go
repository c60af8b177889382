// Package process runs a single child process in its own process group.
//
// Process wraps os/exec for one supervised child:
//   - argv slice, no shell interpretation
//   - stdout and stderr merged into one pipe, drained line by line
//   - Done channel closed after exit and drain, exit code 128+signal when signalled
//   - Stop sends SIGINT to the group, escalating to SIGKILL after a grace period
//
// Example:
//
//	p := process.NewWithOutput("session-1", args, logger, handler)
//	if err := p.Start(); err != nil {
//	    return err
//	}
//	select {
//	case <-p.Done():
//	    log.Printf("exited with %d", p.ExitCode())
//	case <-ctx.Done():
//	    p.Stop(time.Second, 5*time.Second)
//	}
package process
