package process

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/smazurov/relaycast/internal/logging"
)

// ExitKilled is the exit code reported for a child terminated by SIGKILL.
const ExitKilled = 128 + int(unix.SIGKILL)

// ErrAlreadyStarted is returned when Start is called twice on the same Process.
var ErrAlreadyStarted = errors.New("process already started")

// OutputHandler receives output lines from the subprocess.
type OutputHandler interface {
	HandleLine(line string)
}

// OutputHandlerFunc adapts a function to OutputHandler.
type OutputHandlerFunc func(line string)

// HandleLine implements OutputHandler.
func (f OutputHandlerFunc) HandleLine(line string) { f(line) }

// LogParser parses a log line and returns the log level and message.
// Used to extract structured log info from process output (ffmpeg, yt-dlp, etc.)
type LogParser func(line string) (level, msg string)

// Process runs one child process in its own process group. stdout and
// stderr share a single pipe, drained line by line until the child exits.
// A Process is single-use: Start may be called once.
type Process struct {
	id            string
	args          []string
	logger        logging.Logger
	processLogger logging.Logger // logger for process output (nil = don't log output)
	logParser     LogParser
	redact        func(string) string
	outputHandler OutputHandler
	drainTimeout  time.Duration // how long to wait for output after exit before closing the pipe

	mu        sync.Mutex
	cmd       *exec.Cmd
	reader    *os.File
	closeOnce sync.Once
	startedAt time.Time
	exitCode  int
	exitErr   error
	done      chan struct{}
}

// New creates a process for the given argv. Nothing runs until Start.
func New(id string, args []string, logger logging.Logger) *Process {
	return NewWithOutput(id, args, logger, nil)
}

// NewWithOutput creates a process with an output handler.
// The handler receives each non-empty line of combined stdout/stderr.
func NewWithOutput(id string, args []string, logger logging.Logger, handler OutputHandler) *Process {
	return &Process{
		id:            id,
		args:          append([]string(nil), args...),
		logger:        logger,
		outputHandler: handler,
		drainTimeout:  2 * time.Second,
		exitCode:      -1,
		done:          make(chan struct{}),
	}
}

// SetLogParser sets a logger and parser for process output.
// The parser extracts the log level from process-specific output formats.
func (p *Process) SetLogParser(logger logging.Logger, parser LogParser) {
	p.processLogger = logger
	p.logParser = parser
}

// SetRedactor installs a function applied to every output line before it
// reaches the output handler or the logger.
func (p *Process) SetRedactor(redact func(string) string) {
	p.redact = redact
}

// Args returns a copy of the argv.
func (p *Process) Args() []string {
	return append([]string(nil), p.args...)
}

// Start spawns the child. It returns once the child is running; output
// draining and exit detection continue in the background.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return ErrAlreadyStarted
	}
	if len(p.args) == 0 {
		return fmt.Errorf("empty command")
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create output pipe: %w", err)
	}

	cmd := exec.Command(p.args[0], p.args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = writer
	cmd.Stderr = writer

	if err := cmd.Start(); err != nil {
		_ = writer.Close()
		_ = reader.Close()
		return err
	}
	// The child holds its own copy of the write end.
	_ = writer.Close()

	p.cmd = cmd
	p.reader = reader
	p.startedAt = time.Now()

	p.logger.Info("Process started", "id", p.id, "pid", cmd.Process.Pid)

	outputDone := make(chan struct{})
	go func() {
		defer close(outputDone)
		p.streamOutput(reader)
	}()
	go p.wait(cmd, outputDone)

	return nil
}

// wait reaps the child, lets the drain finish, releases the pipe and
// publishes the exit code.
func (p *Process) wait(cmd *exec.Cmd, outputDone <-chan struct{}) {
	err := cmd.Wait()

	select {
	case <-outputDone:
	case <-time.After(p.drainTimeout):
		// A grandchild still holds the write end; closing our end unblocks the scanner.
		p.logger.Warn("Output still open after exit, closing pipe", "id", p.id)
		p.closeReader()
		<-outputDone
	}
	p.closeReader()

	code := exitCodeFromError(err)
	p.mu.Lock()
	p.exitCode = code
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.exitErr = err
	}
	p.mu.Unlock()

	p.logger.Info("Process exited", "id", p.id, "exit_code", code)
	close(p.done)
}

func (p *Process) closeReader() {
	p.closeOnce.Do(func() {
		if p.reader != nil {
			_ = p.reader.Close()
		}
	})
}

// Done is closed once the child has exited and its output is drained.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code, or -1 while the process is running.
// A child killed by a signal reports 128+signal.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Err returns a wait error that is not a plain non-zero exit.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

// PID returns the child's pid, or 0 before Start.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Stop sends SIGINT to the child's process group, waits up to grace for
// it to exit, then escalates to SIGKILL and waits up to killTimeout.
// Returns the exit code. Safe to call after the child has exited.
func (p *Process) Stop(grace, killTimeout time.Duration) int {
	pid := p.PID()
	if pid == 0 {
		return -1
	}

	select {
	case <-p.done:
		return p.ExitCode()
	default:
	}

	p.logger.Info("Sending SIGINT to process group", "id", p.id, "pid", pid)
	p.signalGroup(pid, unix.SIGINT)

	select {
	case <-p.done:
		return p.ExitCode()
	case <-time.After(grace):
	}

	p.logger.Warn("Graceful shutdown timeout, forcing kill", "id", p.id, "timeout", grace)
	p.signalGroup(pid, unix.SIGKILL)

	select {
	case <-p.done:
		return p.ExitCode()
	case <-time.After(killTimeout):
		p.logger.Error("Process did not exit after kill signal", "id", p.id, "pid", pid)
		return ExitKilled
	}
}

// signalGroup signals the whole process group so that children spawned by
// the transcoder are terminated with it.
func (p *Process) signalGroup(pid int, sig unix.Signal) {
	if err := unix.Kill(-pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		p.logger.Warn("Failed to signal process group", "id", p.id, "signal", sig.String(), "error", err)
	}
}

// exitCodeFromError extracts exit code from a Wait error.
// Returns 0 for nil, the exit code for ExitError (128+signal when
// signalled), or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}

// streamOutput reads the combined output until EOF or until the pipe is closed.
func (p *Process) streamOutput(reader io.Reader) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	scanner.Split(scanLines)

	for scanner.Scan() {
		line := string(bytes.TrimSpace(scanner.Bytes()))
		if line == "" {
			continue
		}
		if p.redact != nil {
			line = p.redact(line)
		}

		if p.outputHandler != nil {
			p.outputHandler.HandleLine(line)
		}
		if p.processLogger != nil {
			p.logLine(line)
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		p.logger.Warn("Error reading output", "id", p.id, "error", err)
	}
}

func (p *Process) logLine(line string) {
	level, msg := "info", line
	if p.logParser != nil {
		level, msg = p.logParser(line)
	}

	switch level {
	case "fatal", "panic", "error":
		p.processLogger.Error(msg)
	case "warning":
		p.processLogger.Warn(msg)
	case "debug", "trace", "verbose":
		p.processLogger.Debug(msg)
	default:
		p.processLogger.Info(msg)
	}
}

// scanLines is bufio.ScanLines that also treats a bare '\r' as a line
// end; ffmpeg rewrites its progress line with carriage returns.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
