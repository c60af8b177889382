package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/relaycast/cmd"
	"github.com/smazurov/relaycast/internal/api"
	"github.com/smazurov/relaycast/internal/config"
	"github.com/smazurov/relaycast/internal/logging"
	"github.com/smazurov/relaycast/internal/metrics"
	"github.com/smazurov/relaycast/internal/metrics/exporters"
	"github.com/smazurov/relaycast/internal/sessions"
	"github.com/smazurov/relaycast/internal/sessions/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var current *config.Options
	options := func() *config.Options { return current }

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		current = opts

		// Load configuration automatically
		loadErr := config.LoadConfig(opts, cli.Root())

		logging.Initialize(opts.LoggingConfig())
		logger := logging.GetLogger("main")
		if loadErr != nil {
			logger.Warn("Failed to load config", "error", loadErr)
		}

		var (
			server      *api.Server
			supervisor  *sessions.Supervisor
			unsubscribe func()
		)

		hooks.OnStart(func() {
			comps, err := cmd.NewComponents(opts, store.NewTOML(opts.SessionsFile))
			if err != nil {
				logger.Error("Failed to initialize sessions", "error", err)
				os.Exit(1)
			}
			supervisor = comps.Supervisor
			unsubscribe = metrics.Subscribe(comps.Bus)

			apiOpts := &api.Options{
				AuthUsername: opts.AuthUsername,
				AuthPassword: opts.AuthPassword,
				CORSOrigin:   opts.CorsOrigin,
				Sessions:     supervisor,
				EventBus:     comps.Bus,
			}
			if opts.MetricsEnabled {
				apiOpts.PrometheusHandler = exporters.HTTPHandler(metrics.NewStatusCollector(
					countByStatus(comps.Registry),
					string(sessions.StatusStopped),
					string(sessions.StatusStarting),
					string(sessions.StatusLive),
					string(sessions.StatusError),
				))
			}
			server = api.NewServer(apiOpts)

			logger.Info("Starting HTTP server", "addr", opts.Listen)
			if startErr := server.Start(opts.Listen); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if server != nil {
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}

			// Stop transcoders after the HTTP server stops accepting requests
			if supervisor != nil {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				logger.Info("Stopping all sessions")
				if stopErr := supervisor.StopAll(ctx); stopErr != nil {
					logger.Error("Error stopping sessions", "error", stopErr)
				}
			}
			if unsubscribe != nil {
				unsubscribe()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateRunCmd(options))
	cli.Root().AddCommand(cmd.CreateSessionsCmd(options))
	cli.Root().AddCommand(cmd.CreateCommandCmd(options))
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}

func countByStatus(registry *sessions.Registry) metrics.StatusCounter {
	return func() map[string]int {
		counts := make(map[string]int)
		for _, s := range registry.List() {
			counts[string(s.Status)]++
		}
		return counts
	}
}
