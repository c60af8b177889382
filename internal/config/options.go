package config

import (
	"maps"

	"github.com/smazurov/relaycast/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Listen     string `help:"Address to listen on" short:"p" default:":8090" toml:"server.listen" env:"SERVER_LISTEN"`
	CorsOrigin string `help:"Allowed CORS origin, empty disables CORS" default:"" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Sessions settings
	SessionsFile        string `help:"Session definitions file" default:"sessions.toml" toml:"sessions.file" env:"SESSIONS_FILE"`
	SessionsLogCapacity int    `help:"Log lines kept per session" default:"50" toml:"sessions.log_capacity" env:"SESSIONS_LOG_CAPACITY"`

	// Transcoder settings
	TranscoderBinary  string `help:"ffmpeg executable" default:"ffmpeg" toml:"transcoder.binary" env:"TRANSCODER_BINARY"`
	TranscoderOptions string `help:"Comma-separated ffmpeg behavior options" default:"native_rate" toml:"transcoder.options" env:"TRANSCODER_OPTIONS"`
	IngestYoutube     string `help:"YouTube RTMP ingest base URL" default:"" toml:"ingest.youtube" env:"INGEST_YOUTUBE"`
	IngestFacebook    string `help:"Facebook RTMPS ingest base URL" default:"" toml:"ingest.facebook" env:"INGEST_FACEBOOK"`

	// Resolver settings
	ResolverBinary  string `help:"yt-dlp executable, empty disables remote resolution" default:"yt-dlp" toml:"resolver.binary" env:"RESOLVER_BINARY"`
	ResolverFormat  string `help:"yt-dlp format selector" default:"best[protocol^=m3u8]/best" toml:"resolver.format" env:"RESOLVER_FORMAT"`
	ResolverTimeout string `help:"Maximum time for one resolution" default:"30s" toml:"resolver.timeout" env:"RESOLVER_TIMEOUT"`

	// Supervisor settings
	SupervisorGracePeriod string `help:"Time between interrupt and kill" default:"1s" toml:"supervisor.grace_period" env:"SUPERVISOR_GRACE_PERIOD"`
	SupervisorKillTimeout string `help:"Time to wait after kill" default:"5s" toml:"supervisor.kill_timeout" env:"SUPERVISOR_KILL_TIMEOUT"`
	RestartMode           string `help:"Automatic restart policy (never, on-failure)" default:"never" toml:"supervisor.restart" env:"SUPERVISOR_RESTART"`
	RestartMaxRetries     int    `help:"Automatic restarts before giving up" default:"3" toml:"supervisor.max_retries" env:"SUPERVISOR_MAX_RETRIES"`
	RestartBackoff        string `help:"Delay unit between automatic restarts" default:"5s" toml:"supervisor.backoff" env:"SUPERVISOR_BACKOFF"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingSessions   string `help:"Session registry logging level" default:"info" toml:"logging.sessions" env:"LOGGING_SESSIONS"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"info" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingFfmpeg     string `help:"ffmpeg output logging level" default:"info" toml:"logging.ffmpeg" env:"LOGGING_FFMPEG"`
	LoggingResolver   string `help:"Resolver logging level" default:"info" toml:"logging.resolver" env:"LOGGING_RESOLVER"`
}

// LoggingConfig builds the logging config. Module levels found only in the
// [logging] table of the config file are kept.
func (o *Options) LoggingConfig() logging.Config {
	cfg := LoadLoggingConfig(o.Config)
	modules := map[string]string{
		"api":        o.LoggingAPI,
		"http":       o.LoggingAPI,
		"sessions":   o.LoggingSessions,
		"supervisor": o.LoggingSupervisor,
		"ffmpeg":     o.LoggingFfmpeg,
		"resolver":   o.LoggingResolver,
	}
	maps.Copy(cfg.Modules, modules)
	cfg.Level = o.LoggingLevel
	cfg.Format = o.LoggingFormat
	return cfg
}
