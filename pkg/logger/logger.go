package logger

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Cron adapts a slog.Logger to the logger interface expected by robfig/cron.
// Scheduler bookkeeping is reported at debug level, job panics and parse
// failures at error level.
func Cron(log *slog.Logger) cron.Logger {
	if log == nil {
		log = slog.Default()
	}
	return cronLogger{log: log}
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Log(context.Background(), slog.LevelDebug, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"error", err}, keysAndValues...)
	l.log.Error("cron: "+msg, args...)
}
