// Package cmd holds the relaycast subcommands and the wiring they share with serve.
package cmd

import (
	"fmt"
	"time"

	"github.com/smazurov/relaycast/internal/config"
	"github.com/smazurov/relaycast/internal/events"
	"github.com/smazurov/relaycast/internal/ffmpeg"
	"github.com/smazurov/relaycast/internal/logging"
	"github.com/smazurov/relaycast/internal/resolver"
	"github.com/smazurov/relaycast/internal/sessions"
)

// Components are the services built from Options.
type Components struct {
	Bus        *events.Bus
	Registry   *sessions.Registry
	Supervisor *sessions.Supervisor
}

// NewComponents builds the event bus, registry and supervisor and loads
// persisted sessions from store.
func NewComponents(opts *config.Options, store sessions.Store) (*Components, error) {
	supOpts, err := SupervisorOptions(opts)
	if err != nil {
		return nil, err
	}

	bus := events.New()
	registry := sessions.NewRegistry(sessions.RegistryOptions{
		Store:       store,
		Bus:         bus,
		LogCapacity: opts.SessionsLogCapacity,
	})
	if err := registry.Load(); err != nil {
		return nil, err
	}

	return &Components{
		Bus:        bus,
		Registry:   registry,
		Supervisor: sessions.NewSupervisor(registry, supOpts),
	}, nil
}

// SupervisorOptions translates Options into supervisor settings.
func SupervisorOptions(opts *config.Options) (sessions.SupervisorOptions, error) {
	var out sessions.SupervisorOptions

	grace, err := parseDuration("supervisor.grace_period", opts.SupervisorGracePeriod)
	if err != nil {
		return out, err
	}
	kill, err := parseDuration("supervisor.kill_timeout", opts.SupervisorKillTimeout)
	if err != nil {
		return out, err
	}
	backoff, err := parseDuration("supervisor.backoff", opts.RestartBackoff)
	if err != nil {
		return out, err
	}
	mode, err := sessions.ParseRestartMode(opts.RestartMode)
	if err != nil {
		return out, err
	}

	ffmpegOpts := []ffmpeg.OptionType{}
	for _, name := range config.SplitList(opts.TranscoderOptions) {
		opt, ok := ffmpeg.ParseOption(name)
		if !ok {
			return out, fmt.Errorf("transcoder.options: unknown option %q", name)
		}
		ffmpegOpts = append(ffmpegOpts, opt)
	}

	var res resolver.Resolver
	if opts.ResolverBinary != "" {
		timeout, err := parseDuration("resolver.timeout", opts.ResolverTimeout)
		if err != nil {
			return out, err
		}
		res = resolver.NewYTDLP(opts.ResolverBinary, opts.ResolverFormat, timeout, logging.GetLogger("resolver"))
	}

	return sessions.SupervisorOptions{
		Binary:      opts.TranscoderBinary,
		GracePeriod: grace,
		KillTimeout: kill,
		Restart: sessions.RestartPolicy{
			Mode:       mode,
			MaxRetries: opts.RestartMaxRetries,
			Backoff:    backoff,
		},
		Resolver: res,
		IngestURLs: map[sessions.Platform]string{
			sessions.PlatformYouTube:  opts.IngestYoutube,
			sessions.PlatformFacebook: opts.IngestFacebook,
		},
		FFmpegOptions: ffmpegOpts,
	}, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// readOnlyStore loads specs but never writes them back, so a foreground
// runner cannot clobber edits made by a server sharing the file.
type readOnlyStore struct {
	sessions.Store
}

func (readOnlyStore) Save([]sessions.Spec) error { return nil }
