package sessions

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/relaycast/internal/events"
	"github.com/smazurov/relaycast/internal/ffmpeg"
	"github.com/smazurov/relaycast/internal/logging"
	"github.com/smazurov/relaycast/internal/process"
)

// DefaultLogCapacity is the number of log lines kept per session.
const DefaultLogCapacity = 50

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Store       Store // nil keeps sessions in memory only
	Bus         *events.Bus
	LogCapacity int
	Logger      *slog.Logger
}

// Registry owns the mapping from session id to session.
type Registry struct {
	store  Store
	bus    *events.Bus
	logCap int
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	saveMu sync.Mutex
}

// entry holds one session. mu serializes status, log and handle mutations.
type entry struct {
	mu sync.Mutex

	spec      Spec
	status    Status
	logs      *logging.RingBuffer[LogLine]
	run       *run
	lastError string
	startedAt time.Time

	// version changes on every config update; a start that resolved its
	// source against an older version is rejected.
	version  uint64
	pending  *pendingStart
	retry    *retryToken
	restarts int
	deleted  bool
}

// run is one spawned child. stopRequested hands terminal handling to Stop;
// stopTimedOut hands it back to watch when the child outlived the kill.
type run struct {
	proc          *process.Process
	stopRequested bool
	stopTimedOut  bool
}

type pendingStart struct {
	cancel func()
}

type retryToken struct {
	timer *time.Timer
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = DefaultLogCapacity
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger("sessions")
	}
	return &Registry{
		store:   opts.Store,
		bus:     opts.Bus,
		logCap:  opts.LogCapacity,
		logger:  opts.Logger,
		entries: make(map[string]*entry),
	}
}

// Load restores persisted sessions. All restored sessions are stopped.
func (r *Registry) Load() error {
	if r.store == nil {
		return nil
	}
	specs, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := 0
	for _, spec := range specs {
		if spec.ID == "" {
			r.logger.Warn("Skipping persisted session without id", "title", spec.Title)
			continue
		}
		if _, exists := r.entries[spec.ID]; exists {
			r.logger.Warn("Skipping duplicate persisted session", "session_id", spec.ID)
			continue
		}
		if err := validateSpec(&spec); err != nil {
			r.logger.Warn("Persisted session has invalid config", "session_id", spec.ID, "error", err)
		}
		r.entries[spec.ID] = r.newEntry(spec)
		r.order = append(r.order, spec.ID)
		loaded++
	}

	r.logger.Info("Sessions loaded", "count", loaded)
	return nil
}

func (r *Registry) newEntry(spec Spec) *entry {
	return &entry{
		spec:   spec,
		status: StatusStopped,
		logs:   logging.NewRingBuffer[LogLine](r.logCap),
	}
}

// Create stores a new stopped session with an empty source and key.
// Persistence failures are logged, never returned.
func (r *Registry) Create(title string) Session {
	now := time.Now()
	spec := Spec{
		ID:        uuid.NewString(),
		Title:     title,
		Platform:  PlatformYouTube,
		Profile:   DefaultProfile(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	e := r.newEntry(spec)

	r.mu.Lock()
	r.entries[spec.ID] = e
	r.order = append(r.order, spec.ID)
	r.mu.Unlock()

	r.persist()

	r.logger.Info("Session created", "session_id", spec.ID, "title", title)
	r.bus.Publish(events.SessionCreatedEvent{
		SessionID: spec.ID,
		Title:     title,
		Timestamp: now.Format(time.RFC3339),
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Update applies a configuration change atomically. The session must be stopped.
func (r *Registry) Update(id string, update ConfigUpdate) (Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return Session{}, notFound(id)
	}
	if e.status != StatusStopped {
		e.mu.Unlock()
		return Session{}, NewSessionError(ErrCodeInvalidState,
			fmt.Sprintf("cannot update session while %s", e.status), nil)
	}

	next := update.apply(e.spec)
	if err := validateSpec(&next); err != nil {
		e.mu.Unlock()
		return Session{}, NewSessionError(ErrCodeInvalidConfig, "invalid configuration", err)
	}
	next.UpdatedAt = time.Now()
	e.spec = next
	e.version++
	snap := e.snapshot()
	e.mu.Unlock()

	r.persist()

	r.logger.Info("Session updated", "session_id", id)
	r.bus.Publish(events.SessionUpdatedEvent{
		SessionID: id,
		Title:     snap.Title,
		Timestamp: snap.UpdatedAt.Format(time.RFC3339),
	})
	return snap, nil
}

// Get returns a snapshot of a session.
func (r *Registry) Get(id string) (Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

// List returns snapshots of all sessions in creation order.
func (r *Registry) List() []Session {
	entries := r.all()
	list := make([]Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		list = append(list, e.snapshot())
		e.mu.Unlock()
	}
	return list
}

// Logs returns the session log, oldest first.
func (r *Registry) Logs(id string) ([]LogLine, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.logs.ReadAll(), nil
}

// Delete removes a stopped or failed session and its log irreversibly.
// A pending automatic restart is cancelled.
func (r *Registry) Delete(id string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return notFound(id)
	}
	if e.status.Active() || e.pending != nil {
		status := e.status
		e.mu.Unlock()
		return NewSessionError(ErrCodeInvalidState,
			fmt.Sprintf("cannot delete session while %s", status), nil)
	}
	e.cancelRetry()
	e.deleted = true
	status := e.status
	e.mu.Unlock()

	r.mu.Lock()
	delete(r.entries, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	r.mu.Unlock()

	r.persist()

	r.logger.Info("Session deleted", "session_id", id)
	r.bus.Publish(events.SessionDeletedEvent{
		SessionID: id,
		Status:    string(status),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, notFound(id)
	}
	return e, nil
}

func (r *Registry) all() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	return entries
}

// persist writes every spec in creation order. It must not be called with
// an entry lock held.
func (r *Registry) persist() {
	if r.store == nil {
		return
	}
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	entries := r.all()
	specs := make([]Spec, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		specs = append(specs, e.spec)
		e.mu.Unlock()
	}

	if err := r.store.Save(specs); err != nil {
		r.logger.Error("Failed to persist sessions", "error", err)
	}
}

// snapshot must be called with e.mu held.
func (e *entry) snapshot() Session {
	s := Session{
		ID:             e.spec.ID,
		Title:          e.spec.Title,
		Source:         e.spec.Source,
		DestinationKey: e.spec.DestinationKey,
		Platform:       e.spec.Platform,
		Profile:        e.spec.Profile,
		Status:         e.status,
		HasProcess:     e.run != nil,
		LastError:      e.lastError,
		Restarts:       e.restarts,
		CreatedAt:      e.spec.CreatedAt,
		UpdatedAt:      e.spec.UpdatedAt,
		StartedAt:      e.startedAt,
	}
	if e.run != nil {
		s.PID = e.run.proc.PID()
	}
	return s
}

// appendLog redacts, timestamps and stores one line. Must hold e.mu.
func (e *entry) appendLog(level, text string) LogLine {
	line := LogLine{
		Time:  time.Now(),
		Level: level,
		Text:  ffmpeg.Redact(strings.ReplaceAll(text, "\n", "; "), e.spec.DestinationKey),
	}
	e.logs.Write(line)
	return line
}

// cancelRetry stops a scheduled automatic restart. Must hold e.mu.
func (e *entry) cancelRetry() {
	if e.retry != nil {
		e.retry.timer.Stop()
		e.retry = nil
	}
}
