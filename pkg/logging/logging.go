package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level     string
	Format    string // "text" or "json"
	File      string
	FileMaxMB int
	Writer    io.Writer
}

// New builds the process logger. The returned closer flushes the log file, if any.
func New(cfg Config) (*slog.Logger, io.Closer) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		maxSize := cfg.FileMaxMB
		if maxSize <= 0 {
			maxSize = 10
		}
		file := &lumberjack.Logger{
			Filename:  cfg.File,
			MaxSize:   maxSize,
			LocalTime: true,
		}
		w = io.MultiWriter(w, file)
		closer = file
	}

	level := ParseLevel(cfg.Level)
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") || cfg.File != "" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}
	return slog.New(handler), closer
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Discard is used by tests and by components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const RequestIDKey = "request_id"

// Middleware tags every request with an id and logs it once it is served.
func Middleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String(RequestIDKey, requestID),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request served", attrs...)
		case c.Writer.Status() >= 400:
			logger.Warn("request served", attrs...)
		default:
			logger.Info("request served", attrs...)
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
