package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/relaycast/internal/config"
	"github.com/smazurov/relaycast/internal/events"
	"github.com/smazurov/relaycast/internal/logging"
	"github.com/smazurov/relaycast/internal/sessions"
	"github.com/smazurov/relaycast/internal/sessions/store"
)

// CreateRunCmd creates the run command that supervises one session in the
// foreground.
func CreateRunCmd(options func() *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "run <session>",
		Short: "Run a single session in the foreground",
		Long: `Run one session from the sessions file without the HTTP server.

The session may be given by id or by its exact title. Log lines are written
to stdout. Edits to the session in the sessions file are picked up while
running; a live session is restarted with the new configuration.

Exit codes:
  0 - transcoder finished normally or interrupted
  1 - session failed`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			os.Exit(runSession(options(), args[0]))
		},
	}
}

func runSession(opts *config.Options, ref string) int {
	logger := logging.GetLogger("sessions")

	file := store.NewTOML(opts.SessionsFile)
	comps, err := NewComponents(opts, readOnlyStore{file})
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		return 1
	}
	sup := comps.Supervisor

	sess, err := findSession(comps.Registry.List(), ref)
	if err != nil {
		logger.Error("Session not found", "session", ref, "error", err)
		return 1
	}
	id := sess.ID
	logger = logger.With("session_id", id)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubLogs := comps.Bus.Subscribe(func(ev events.SessionLogEvent) {
		if ev.SessionID == id {
			fmt.Fprintln(os.Stdout, ev.Line)
		}
	})
	defer unsubLogs()

	exitCode := make(chan int, 1)
	unsubState := comps.Bus.Subscribe(func(ev events.SessionStateChangedEvent) {
		if ev.SessionID != id {
			return
		}
		if code, done := runExitCode(ev); done {
			select {
			case exitCode <- code:
			default:
			}
		}
	})
	defer unsubState()

	watcher := config.NewWatcher(opts.SessionsFile, func(string) (sessions.Spec, error) {
		return loadSpec(file, id)
	}, logger, config.WithErrorHandler[sessions.Spec](func(err error) {
		logger.Warn("Ignoring sessions file change", "error", err)
	}))
	watcher.OnReload(func(spec sessions.Spec) {
		if err := applySpec(ctx, sup, spec, logger); err != nil {
			logger.Error("Failed to apply session change", "error", err)
			select {
			case exitCode <- 1:
			default:
			}
		}
	})
	if err := watcher.Start(); err != nil {
		logger.Warn("Sessions file watching disabled", "error", err)
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			logger.Warn("Failed to stop watcher", "error", err)
		}
	}()

	logger.Info("Starting session", "title", sess.Title)
	if err := sup.Start(ctx, id); err != nil {
		logger.Error("Failed to start session", "error", err)
		return 1
	}

	select {
	case code := <-exitCode:
		return code
	case <-ctx.Done():
		logger.Info("Interrupted, stopping session")
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sup.Stop(stopCtx, id); err != nil {
			logger.Error("Failed to stop session", "error", err)
			return 1
		}
		return 0
	}
}

// runExitCode maps a state change to the process exit code of a foreground
// run. Requested stops and failures that will be retried do not end the run.
func runExitCode(ev events.SessionStateChangedEvent) (int, bool) {
	if ev.Retrying || ev.Reason == sessions.ReasonRequested {
		return 0, false
	}
	switch sessions.Status(ev.To) {
	case sessions.StatusStopped:
		return 0, true
	case sessions.StatusError:
		return 1, true
	}
	return 0, false
}

// findSession resolves ref as an id first, then as a unique title.
func findSession(list []sessions.Session, ref string) (sessions.Session, error) {
	var matches []sessions.Session
	for _, s := range list {
		if s.ID == ref {
			return s, nil
		}
		if s.Title == ref {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return sessions.Session{}, fmt.Errorf("no session with id or title %q", ref)
	case 1:
		return matches[0], nil
	}
	return sessions.Session{}, fmt.Errorf("title %q matches %d sessions, use the id", ref, len(matches))
}

func loadSpec(s sessions.Store, id string) (sessions.Spec, error) {
	specs, err := s.Load()
	if err != nil {
		return sessions.Spec{}, err
	}
	for _, spec := range specs {
		if spec.ID == id {
			return spec, nil
		}
	}
	return sessions.Spec{}, fmt.Errorf("session %s no longer in sessions file", id)
}

// applySpec stops, updates and restarts the session when spec differs from
// its current configuration.
func applySpec(ctx context.Context, sup *sessions.Supervisor, spec sessions.Spec, logger *slog.Logger) error {
	cur, err := sup.Get(spec.ID)
	if err != nil {
		return err
	}
	update, changed := specChanges(cur, spec)
	if !changed {
		return nil
	}

	wasActive := cur.Status.Active()
	logger.Info("Session configuration changed", "restart", wasActive)
	if err := sup.Stop(ctx, spec.ID); err != nil {
		return err
	}
	if _, err := sup.Update(spec.ID, update); err != nil {
		return err
	}
	if !wasActive {
		return nil
	}
	return sup.Start(ctx, spec.ID)
}

// specChanges returns an update covering every field where spec differs from cur.
func specChanges(cur sessions.Session, spec sessions.Spec) (sessions.ConfigUpdate, bool) {
	var u sessions.ConfigUpdate
	changed := false
	if spec.Title != cur.Title {
		u.Title, changed = &spec.Title, true
	}
	if spec.Source != cur.Source {
		u.Source, changed = &spec.Source, true
	}
	if spec.DestinationKey != cur.DestinationKey {
		u.DestinationKey, changed = &spec.DestinationKey, true
	}
	if spec.Platform != cur.Platform {
		u.Platform, changed = &spec.Platform, true
	}
	p := spec.Profile
	if p.BitrateKbps != cur.Profile.BitrateKbps {
		u.BitrateKbps, changed = &p.BitrateKbps, true
	}
	if p.Resolution != cur.Profile.Resolution {
		u.Resolution, changed = &p.Resolution, true
	}
	if p.FPS != cur.Profile.FPS {
		u.FPS, changed = &p.FPS, true
	}
	if p.Orientation != cur.Profile.Orientation {
		u.Orientation, changed = &p.Orientation, true
	}
	if p.Loop != cur.Profile.Loop {
		u.Loop, changed = &p.Loop, true
	}
	return u, changed
}
