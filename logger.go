package vecfleet

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with vecfleet-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithInstance adds the instance ID field to the logger.
func (l *Logger) WithInstance(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("instance", id),
	}
}

// WithRole adds the role field to the logger.
func (l *Logger) WithRole(role Role) *Logger {
	return &Logger{
		Logger: l.Logger.With("role", string(role)),
	}
}

// LogRegister logs an instance registration.
func (l *Logger) LogRegister(ctx context.Context, id string, role Role, version int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "instance registration failed",
			"instance", id,
			"role", string(role),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "instance registered",
			"instance", id,
			"role", string(role),
			"version", version,
		)
	}
}

// LogHeartbeat logs a heartbeat cycle.
func (l *Logger) LogHeartbeat(ctx context.Context, version int64, evicted int, err error) {
	if err != nil {
		l.WarnContext(ctx, "heartbeat failed",
			"error", err,
		)
	} else if evicted > 0 {
		l.InfoContext(ctx, "heartbeat completed",
			"version", version,
			"evicted", evicted,
		)
	} else {
		l.DebugContext(ctx, "heartbeat completed",
			"version", version,
		)
	}
}

// LogConfigChange logs an observed shared config change.
func (l *Logger) LogConfigChange(ctx context.Context, oldVersion, newVersion int64) {
	l.DebugContext(ctx, "shared config changed",
		"old_version", oldVersion,
		"new_version", newVersion,
	)
}

// LogConflict logs a detected concurrent write.
func (l *Logger) LogConflict(ctx context.Context, expected, actual int64, attempt int) {
	l.DebugContext(ctx, "write conflict detected, re-merging",
		"expected_version", expected,
		"actual_version", actual,
		"attempt", attempt,
	)
}

// LogEviction logs removal of a stale instance.
func (l *Logger) LogEviction(ctx context.Context, id string, lastHeartbeat time.Time) {
	l.InfoContext(ctx, "evicting stale instance",
		"instance", id,
		"last_heartbeat", lastHeartbeat,
	)
}

// LogMigration logs a legacy-path migration.
func (l *Logger) LogMigration(ctx context.Context, legacyPath, canonicalPath string, err error) {
	if err != nil {
		l.WarnContext(ctx, "legacy config migration incomplete",
			"legacy_path", legacyPath,
			"canonical_path", canonicalPath,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "legacy config migrated",
			"legacy_path", legacyPath,
			"canonical_path", canonicalPath,
		)
	}
}
