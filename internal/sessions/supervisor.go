package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smazurov/relaycast/internal/events"
	"github.com/smazurov/relaycast/internal/ffmpeg"
	"github.com/smazurov/relaycast/internal/logging"
	"github.com/smazurov/relaycast/internal/process"
	"github.com/smazurov/relaycast/internal/resolver"
)

// Transition reasons carried by SessionStateChangedEvent.
const (
	ReasonStart            = "start"
	ReasonSpawned          = "spawned"
	ReasonRequested        = "requested"
	ReasonExited           = "exited"
	ReasonFailed           = "failed"
	ReasonSpawnFailed      = "spawn_failed"
	ReasonResolutionFailed = "resolution_failed"
)

// Default supervisor timings.
const (
	DefaultGracePeriod = time.Second
	DefaultKillTimeout = 5 * time.Second
)

// CommandBuilder returns the full argv for a session. source is the
// already-resolved input.
type CommandBuilder func(spec Spec, source string) ([]string, error)

// SupervisorOptions configures a Supervisor.
type SupervisorOptions struct {
	Binary         string        // transcoder executable, ffmpeg when empty
	GracePeriod    time.Duration // SIGINT to SIGKILL delay
	KillTimeout    time.Duration // wait after SIGKILL
	Restart        RestartPolicy
	Resolver       resolver.Resolver // nil passes remote sources through unchanged
	IngestURLs     map[Platform]string
	FFmpegOptions  []ffmpeg.OptionType
	CommandBuilder CommandBuilder // nil uses the ffmpeg builder
	Logger         *slog.Logger
}

// Supervisor runs at most one child process per session.
type Supervisor struct {
	registry *Registry
	opts     SupervisorOptions
	logger   *slog.Logger
}

// NewSupervisor creates a supervisor over registry.
func NewSupervisor(registry *Registry, opts SupervisorOptions) *Supervisor {
	if opts.Binary == "" {
		opts.Binary = ffmpeg.Binary
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.KillTimeout <= 0 {
		opts.KillTimeout = DefaultKillTimeout
	}
	if opts.FFmpegOptions == nil {
		opts.FFmpegOptions = []ffmpeg.OptionType{ffmpeg.OptionNativeRate}
	}
	ingest := map[Platform]string{
		PlatformYouTube:  ffmpeg.YouTubeIngest,
		PlatformFacebook: ffmpeg.FacebookIngest,
	}
	for p, url := range opts.IngestURLs {
		if url != "" {
			ingest[p] = url
		}
	}
	opts.IngestURLs = ingest
	opts.Restart = opts.Restart.normalize()
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger("supervisor")
	}

	s := &Supervisor{registry: registry, opts: opts, logger: opts.Logger}
	if s.opts.CommandBuilder == nil {
		s.opts.CommandBuilder = s.buildCommand
	}
	return s
}

// Registry returns the underlying registry.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// Start spawns the transcoder for a session.
func (s *Supervisor) Start(ctx context.Context, id string) error {
	return s.start(ctx, id, nil)
}

// start is shared by Start and automatic restarts. A non-nil token must
// still be the session's scheduled retry, otherwise the retry was cancelled.
func (s *Supervisor) start(ctx context.Context, id string, token *retryToken) error {
	e, err := s.registry.lookup(id)
	if err != nil {
		return err
	}
	logger := s.logger.With("session_id", id)

	var pub publisher
	defer func() { pub.flush(s.registry.bus) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return notFound(id)
	}
	if token != nil {
		if e.retry != token {
			return NewSessionError(ErrCodeInvalidState, "automatic restart cancelled", nil)
		}
		e.retry = nil
	} else {
		e.cancelRetry()
	}

	if err := validateForStart(&e.spec); err != nil {
		pub.log(id, e.appendLog("error", "start rejected: "+err.Error()))
		return NewSessionError(ErrCodeInvalidConfig, "session cannot start", err)
	}
	if e.status.Active() || e.pending != nil {
		pub.log(id, e.appendLog("warning", "start rejected: session already running"))
		return NewSessionError(ErrCodeAlreadyRunning, fmt.Sprintf("session is %s", e.status), nil)
	}
	if token == nil {
		e.restarts = 0
	}

	spec := e.spec
	source := spec.Source

	if s.opts.Resolver != nil && resolver.IsRemote(source) {
		resolved, err := s.resolve(ctx, e, &pub, logger)
		if err != nil {
			return err
		}
		source = resolved
	}

	argv, err := s.opts.CommandBuilder(spec, source)
	if err != nil {
		pub.log(id, e.appendLog("error", "failed to build command: "+err.Error()))
		return NewSessionError(ErrCodeInvalidConfig, "failed to build command", err)
	}

	r := &run{}
	r.proc = s.newProcess(e, r, argv)
	from := e.status
	e.run = r
	e.status = StatusStarting
	e.lastError = ""
	pub.log(id, e.appendLog("info", "starting: "+ffmpeg.QuoteArgs(argv)))
	pub.state(id, from, StatusStarting, ReasonStart, "", 0, false)

	if err := r.proc.Start(); err != nil {
		e.run = nil
		e.status = StatusError
		e.lastError = "failed to start process: " + err.Error()
		pub.log(id, e.appendLog("error", e.lastError))
		retrying := token != nil && s.scheduleRetry(e, &pub)
		pub.state(id, StatusStarting, StatusError, ReasonSpawnFailed, e.lastError, 0, retrying)
		logger.Error("Failed to spawn transcoder", "error", err)
		return NewSessionError(ErrCodeSpawnFailed, "failed to start process", err)
	}

	pid := r.proc.PID()
	e.status = StatusLive
	e.startedAt = time.Now()
	pub.log(id, e.appendLog("info", fmt.Sprintf("process started (pid %d)", pid)))
	pub.state(id, StatusStarting, StatusLive, ReasonSpawned, "", pid, false)
	logger.Info("Session live", "pid", pid, "restarts", e.restarts)

	go s.watch(e, r)
	return nil
}

// resolve runs the resolver without holding the session lock. Called and
// returns with e.mu held.
func (s *Supervisor) resolve(ctx context.Context, e *entry, pub *publisher, logger *slog.Logger) (string, error) {
	id := e.spec.ID
	source := e.spec.Source
	version := e.version

	rctx, cancel := context.WithCancel(ctx)
	p := &pendingStart{cancel: cancel}
	e.pending = p
	pub.log(id, e.appendLog("info", "resolving source "+source))

	e.mu.Unlock()
	resolved, err := s.opts.Resolver.Resolve(rctx, source)
	cancel()
	e.mu.Lock()

	cancelled := e.pending != p
	if !cancelled {
		e.pending = nil
	}

	switch {
	case e.deleted:
		return "", notFound(id)
	case cancelled:
		pub.log(id, e.appendLog("warning", "start cancelled during source resolution"))
		return "", NewSessionError(ErrCodeInvalidState, "start cancelled during source resolution", nil)
	case e.status.Active():
		return "", NewSessionError(ErrCodeAlreadyRunning, fmt.Sprintf("session is %s", e.status), nil)
	case e.version != version:
		pub.log(id, e.appendLog("warning", "configuration changed during source resolution"))
		return "", NewSessionError(ErrCodeInvalidState, "configuration changed during source resolution", nil)
	}

	if err != nil {
		from := e.status
		e.status = StatusError
		e.lastError = "failed to resolve source: " + err.Error()
		pub.log(id, e.appendLog("error", e.lastError))
		pub.state(id, from, StatusError, ReasonResolutionFailed, e.lastError, 0, false)
		logger.Warn("Source resolution failed", "error", err)
		return "", NewSessionError(ErrCodeResolutionFailed, "failed to resolve source", err)
	}
	return resolved, nil
}

func (s *Supervisor) newProcess(e *entry, r *run, argv []string) *process.Process {
	id := e.spec.ID
	key := e.spec.DestinationKey
	sink := &outputSink{supervisor: s, entry: e, run: r}
	proc := process.NewWithOutput(id, argv, s.logger.With("session_id", id), sink)
	proc.SetRedactor(func(line string) string { return ffmpeg.Redact(line, key) })
	proc.SetLogParser(logging.GetLogger("ffmpeg").With("session_id", id), ffmpeg.ParseLogLevel)
	return proc
}

// outputSink appends drained lines to the session log while its run is current.
type outputSink struct {
	supervisor *Supervisor
	entry      *entry
	run        *run
}

// HandleLine implements process.OutputHandler.
func (o *outputSink) HandleLine(text string) {
	e := o.entry
	parsed := ffmpeg.ParseLine(text)
	level := parsed.Level

	e.mu.Lock()
	if e.run != o.run {
		e.mu.Unlock()
		return
	}
	id := e.spec.ID
	line := e.appendLog(level, parsed.Message())
	e.mu.Unlock()

	bus := o.supervisor.registry.bus
	bus.Publish(events.SessionLogEvent{
		SessionID: id,
		Level:     level,
		Line:      line.String(),
		Timestamp: line.Time.Format(time.RFC3339),
	})
	if p, ok := ffmpeg.ParseProgress(parsed.Text); ok {
		bus.Publish(events.SessionProgressEvent{
			SessionID:   id,
			Frame:       p.Frame,
			FPS:         p.FPS,
			BitrateKbps: p.BitrateKbps,
			Speed:       p.Speed,
		})
	}
}

// watch finalizes a run that ends without a stop request.
func (s *Supervisor) watch(e *entry, r *run) {
	<-r.proc.Done()
	info := r.proc.Info()
	code := info.ExitCode
	uptime := time.Since(info.StartedAt).Round(time.Millisecond)

	var pub publisher
	defer func() { pub.flush(s.registry.bus) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run != r || (r.stopRequested && !r.stopTimedOut) {
		return
	}
	e.run = nil
	id := e.spec.ID
	from := e.status

	if r.stopTimedOut {
		e.status = StatusStopped
		pub.log(id, e.appendLog("info", "stopped by request"))
		pub.state(id, from, StatusStopped, ReasonRequested, "", 0, false)
		s.logger.Info("Session stopped after delayed exit", "session_id", id, "pid", info.PID, "uptime", uptime)
		return
	}

	if code == 0 {
		e.status = StatusStopped
		pub.log(id, e.appendLog("info", "process exited normally"))
		pub.state(id, from, StatusStopped, ReasonExited, "", 0, false)
		s.logger.Info("Transcoder exited normally", "session_id", id, "pid", info.PID, "uptime", uptime)
		return
	}

	abnormal := NewSessionError(ErrCodeAbnormalExit, fmt.Sprintf("process exited with code %d", code), r.proc.Err())
	e.status = StatusError
	e.lastError = abnormal.Error()
	pub.log(id, e.appendLog("error", fmt.Sprintf("process exited with code %d", code)))
	retrying := s.scheduleRetry(e, &pub)
	pub.state(id, from, StatusError, ReasonFailed, e.lastError, 0, retrying)
	s.logger.Warn("Transcoder exited abnormally", "session_id", id, "pid", info.PID, "exit_code", code, "uptime", uptime, "retrying", retrying)
}

// Stop terminates a session's child. Stopping a stopped session is a no-op;
// stopping a failed session cancels its pending restart.
func (s *Supervisor) Stop(ctx context.Context, id string) error {
	e, err := s.registry.lookup(id)
	if err != nil {
		return err
	}

	var pub publisher
	defer func() { pub.flush(s.registry.bus) }()

	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return notFound(id)
	}

	switch e.status {
	case StatusStopped:
		if e.pending != nil {
			e.pending.cancel()
			e.pending = nil
		}
		e.mu.Unlock()
		return nil
	case StatusError:
		e.cancelRetry()
		if e.pending != nil {
			e.pending.cancel()
			e.pending = nil
		}
		e.status = StatusStopped
		pub.log(id, e.appendLog("info", "stopped by request"))
		pub.state(id, StatusError, StatusStopped, ReasonRequested, "", 0, false)
		e.mu.Unlock()
		return nil
	}

	r := e.run
	r.stopRequested = true
	e.cancelRetry()
	e.mu.Unlock()

	grace := s.opts.GracePeriod
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < grace {
		grace = max(time.Until(deadline), 0)
	}
	code := r.proc.Stop(grace, s.opts.KillTimeout)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run != r {
		return nil
	}
	select {
	case <-r.proc.Done():
	default:
		// The child survived SIGKILL. Keep the handle so no second child
		// can start; watch finalizes the run once it is reaped.
		r.stopTimedOut = true
		e.lastError = fmt.Sprintf("process %d did not exit after kill", r.proc.PID())
		pub.log(id, e.appendLog("error", "stop failed: "+e.lastError))
		s.logger.Error("Session stop timed out", "session_id", id, "pid", r.proc.PID())
		return NewSessionError(ErrCodeStopFailed, e.lastError, nil)
	}
	from := e.status
	e.run = nil
	e.status = StatusStopped
	pub.log(id, e.appendLog("info", "stopped by request"))
	pub.state(id, from, StatusStopped, ReasonRequested, "", 0, false)
	s.logger.Info("Session stopped", "session_id", id, "exit_code", code)
	return nil
}

// StopAll stops every active session in parallel.
func (s *Supervisor) StopAll(ctx context.Context) error {
	var g errgroup.Group
	for _, e := range s.registry.all() {
		e.mu.Lock()
		id := e.spec.ID
		active := e.status.Active() || e.retry != nil || e.pending != nil
		e.mu.Unlock()
		if !active {
			continue
		}
		g.Go(func() error {
			if err := s.Stop(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("stop %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Command returns the argv a start would run, with the key redacted.
// Remote sources are shown unresolved.
func (s *Supervisor) Command(id string) ([]string, error) {
	e, err := s.registry.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	spec := e.spec
	e.mu.Unlock()

	if err := validateForStart(&spec); err != nil {
		return nil, NewSessionError(ErrCodeInvalidConfig, "session cannot start", err)
	}
	argv, err := s.opts.CommandBuilder(spec, spec.Source)
	if err != nil {
		return nil, NewSessionError(ErrCodeInvalidConfig, "failed to build command", err)
	}
	return ffmpeg.RedactArgs(argv, spec.DestinationKey), nil
}

// Create, Update, Get, List, Logs and Delete delegate to the registry so a
// Supervisor satisfies Controller.
var _ Controller = (*Supervisor)(nil)

// Create implements Controller.
func (s *Supervisor) Create(title string) Session { return s.registry.Create(title) }

// Update implements Controller.
func (s *Supervisor) Update(id string, update ConfigUpdate) (Session, error) {
	return s.registry.Update(id, update)
}

// Get implements Controller.
func (s *Supervisor) Get(id string) (Session, error) { return s.registry.Get(id) }

// List implements Controller.
func (s *Supervisor) List() []Session { return s.registry.List() }

// Logs implements Controller.
func (s *Supervisor) Logs(id string) ([]LogLine, error) { return s.registry.Logs(id) }

// Delete implements Controller.
func (s *Supervisor) Delete(id string) error { return s.registry.Delete(id) }

func (s *Supervisor) buildCommand(spec Spec, source string) ([]string, error) {
	url, err := ffmpeg.IngestURL(s.opts.IngestURLs[spec.Platform], spec.DestinationKey)
	if err != nil {
		return nil, err
	}
	width, height := spec.Profile.Size()

	opts := append([]ffmpeg.OptionType(nil), s.opts.FFmpegOptions...)
	if ffmpeg.IsNetworkURL(source) {
		opts = append(opts, ffmpeg.OptionReconnect)
	}

	return ffmpeg.BuildCommand(s.opts.Binary, &ffmpeg.Params{
		Source:      source,
		Loop:        spec.Profile.Loop,
		BitrateKbps: spec.Profile.BitrateKbps,
		Width:       width,
		Height:      height,
		FPS:         spec.Profile.FPS,
		GOP:         spec.Profile.KeyframeInterval(),
		OutputURL:   url,
		Options:     opts,
	})
}

// publisher collects events under the session lock and publishes them
// after it is released.
type publisher struct {
	pending []events.Event
}

func (p *publisher) log(id string, line LogLine) {
	p.pending = append(p.pending, events.SessionLogEvent{
		SessionID: id,
		Level:     line.Level,
		Line:      line.String(),
		Timestamp: line.Time.Format(time.RFC3339),
	})
}

func (p *publisher) state(id string, from, to Status, reason, errMsg string, pid int, retrying bool) {
	p.pending = append(p.pending, events.SessionStateChangedEvent{
		SessionID: id,
		From:      string(from),
		To:        string(to),
		Reason:    reason,
		Error:     errMsg,
		PID:       pid,
		Retrying:  retrying,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (p *publisher) flush(bus *events.Bus) {
	for _, ev := range p.pending {
		bus.Publish(ev)
	}
	p.pending = nil
}
