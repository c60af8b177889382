package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is a duck-typed interface satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mutex         sync.RWMutex
	globalConfig  Config
	isInitialized bool
	modules       = make(map[string]*moduleLogger)
	globalLevel   = &slog.LevelVar{}

	// output is where the stdout handler writes; tests swap it.
	output io.Writer = os.Stdout
)

type moduleLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// Initialize sets up the logging system. Loggers handed out before
// Initialize keep their handler but pick up the configured level.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true
	globalLevel.Set(levelOr(config.Level, slog.LevelInfo))

	for name, ml := range modules {
		ml.level.Set(moduleLevel(name))
		ml.logger = slog.New(createHandler(config.Format, ml.level)).With("module", name)
	}

	slog.SetDefault(slog.New(createHandler(config.Format, globalLevel)))
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	ml, ok := modules[module]
	mutex.RUnlock()
	if ok {
		return ml.logger
	}

	mutex.Lock()
	defer mutex.Unlock()

	if ml, ok = modules[module]; ok {
		return ml.logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevel(module))

	format := "text"
	if isInitialized {
		format = globalConfig.Format
	}

	ml = &moduleLogger{
		logger: slog.New(createHandler(format, levelVar)).With("module", module),
		level:  levelVar,
	}
	modules[module] = ml
	return ml.logger
}

// SetModuleLevel changes the level of a module logger at runtime.
// Returns false if the level string is not recognized.
func SetModuleLevel(module, level string) bool {
	parsed := parseLevel(level)
	if parsed == nil {
		return false
	}
	GetLogger(module)

	mutex.Lock()
	defer mutex.Unlock()
	modules[module].level.Set(*parsed)
	return true
}

// moduleLevel resolves the level for a module (must hold lock).
func moduleLevel(module string) slog.Level {
	if !isInitialized {
		return slog.LevelInfo
	}
	level := levelOr(globalConfig.Level, slog.LevelInfo)
	if s, ok := globalConfig.Modules[module]; ok {
		level = levelOr(s, level)
	}
	return level
}

// createHandler builds the handler chain: stdout (text or json) and, when
// running under systemd, the journal.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(output, opts)
	} else {
		stdout = slog.NewTextHandler(output, opts)
	}

	if !IsJournalAvailable() {
		return stdout
	}
	if !isStdoutAvailable() {
		return NewJournalHandler(level)
	}
	return NewMultiHandler(stdout, NewJournalHandler(level))
}

// isStdoutAvailable reports whether stdout goes somewhere useful
// (terminal, pipe, socket or regular file, but not /dev/null).
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

func levelOr(s string, fallback slog.Level) slog.Level {
	if l := parseLevel(s); l != nil {
		return *l
	}
	return fallback
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}
