package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a structured JSON logger. Every entry carries the service name,
// hostname, an action tag, and the request id from the context when present.
type Logger struct {
	z *zap.Logger
}

// NewLogger creates a logger for the given service, writing JSON lines to stdout.
func NewLogger(service string) *Logger {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		zapcore.DebugLevel,
	)

	z := zap.New(core).With(
		zap.String("service", service),
		zap.String("hostname", hostname),
	)

	return &Logger{z: z}
}

// Define an unexported type for context keys.
type ctxKey string

// requestIDKey is the context key for the request ID.
const requestIDKey ctxKey = "request_id"

// WithRequestID returns a context carrying a request id (useful for HTTP/mq hops).
func (logger *Logger) WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// requestIDFrom returns a value saved in the context.
func requestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// fields assembles the common per-entry fields.
func fields(ctx context.Context, action string, details any) []zap.Field {
	fs := []zap.Field{
		zap.String("action", action),
		zap.String("request_id", requestIDFrom(ctx)),
	}
	if details != nil {
		fs = append(fs, zap.Any("details", details))
	}
	return fs
}

// -- Logger helper functions --

func (logger *Logger) Info(ctx context.Context, action, msg string, details any) {
	logger.z.Info(msg, fields(ctx, action, details)...)
}

func (logger *Logger) Debug(ctx context.Context, action, msg string, details any) {
	logger.z.Debug(msg, fields(ctx, action, details)...)
}

func (logger *Logger) Error(ctx context.Context, action, msg string, err error) {
	fs := fields(ctx, action, nil)
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	logger.z.Error(msg, fs...)
}

// Sync flushes any buffered log entries.
func (logger *Logger) Sync() {
	_ = logger.z.Sync()
}
