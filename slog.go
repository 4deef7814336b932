package postsapi

import (
	"context"
	"io"
	"log/slog"
	"sort"
)

// LevelTrace is one step below slog.LevelDebug, following the spacing of slog.LevelWarn and slog.LevelError.
const LevelTrace = slog.LevelDebug - 4

// slogAttrsFromFields converts fields into slog key-value pairs, sorted by key.
func slogAttrsFromFields(fields LogFields) []any {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]any, 0, len(fields)*2)
	for _, key := range keys {
		result = append(result, key, fields[key])
	}

	return result
}

// SlogLoggerAdapter wraps [slog.Logger].
type SlogLoggerAdapter struct {
	slog *slog.Logger

	levelMapping map[slog.Level]slog.Level
}

// Error logs a message to [slog.LevelError].
func (s *SlogLoggerAdapter) Error(msg string, err error, fields LogFields) {
	s.log(slog.LevelError, msg, append(slogAttrsFromFields(fields), "error", err)...)
}

// Info logs a message to [slog.LevelInfo].
func (s *SlogLoggerAdapter) Info(msg string, fields LogFields) {
	s.log(slog.LevelInfo, msg, slogAttrsFromFields(fields)...)
}

// Debug logs a message to [slog.LevelDebug].
func (s *SlogLoggerAdapter) Debug(msg string, fields LogFields) {
	s.log(slog.LevelDebug, msg, slogAttrsFromFields(fields)...)
}

// Trace logs a message to [LevelTrace].
func (s *SlogLoggerAdapter) Trace(msg string, fields LogFields) {
	s.log(LevelTrace, msg, slogAttrsFromFields(fields)...)
}

// With returns a [SlogLoggerAdapter] with fields injected into all consequent logging messages.
func (s *SlogLoggerAdapter) With(fields LogFields) LoggerAdapter {
	return &SlogLoggerAdapter{
		slog:         s.slog.With(slogAttrsFromFields(fields)...),
		levelMapping: s.levelMapping,
	}
}

func (s *SlogLoggerAdapter) log(level slog.Level, msg string, args ...any) {
	if mapped, ok := s.levelMapping[level]; ok {
		level = mapped
	}

	// slog uses the context for values only, deadlines are ignored
	s.slog.Log(context.Background(), level, msg, args...)
}

// NewSlogLogger creates an adapter to the standard library's structured logging package.
// A nil logger is substituted with [slog.Default].
func NewSlogLogger(logger *slog.Logger) LoggerAdapter {
	return NewSlogLoggerWithLevelMapping(logger, nil)
}

// NewSlogLoggerWithLevelMapping works like NewSlogLogger,
// but remaps levels before they reach the handler.
// For example, mapping slog.LevelInfo to slog.LevelDebug hides chatty info logs in production.
func NewSlogLoggerWithLevelMapping(logger *slog.Logger, levelMapping map[slog.Level]slog.Level) LoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &SlogLoggerAdapter{
		slog:         logger,
		levelMapping: levelMapping,
	}
}

// NewSlogJSONLogger creates a SlogLoggerAdapter writing JSON lines to out.
func NewSlogJSONLogger(out io.Writer, debug, trace bool) LoggerAdapter {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if trace {
		level = LevelTrace
	}

	return NewSlogLogger(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})))
}
