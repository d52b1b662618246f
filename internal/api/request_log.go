package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger plugs the service logger into chi's RequestLogger.
type requestLogger struct {
	logger *log.Logger
}

func (l requestLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestLogEntry{
		logger: l.logger.With(
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		),
	}
}

type requestLogEntry struct {
	logger *log.Logger
}

func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	if status >= http.StatusInternalServerError {
		e.logger.Error("request", "status", status, "bytes", bytes, "elapsed", elapsed)
		return
	}
	e.logger.Info("request", "status", status, "bytes", bytes, "elapsed", elapsed)
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("panic", "err", v, "stack", string(stack))
}
