package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON zap logger.
// Debug mode keeps JSON output but lowers the level to debug.
func New(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"service": "racelog"}
	return cfg.Build()
}

// Leveled adapts a zap logger to the key/value logging interface used by
// go-retryablehttp.
type Leveled struct {
	s *zap.SugaredLogger
}

// NewLeveled wraps l, tagging every entry with component.
func NewLeveled(l *zap.Logger, component string) *Leveled {
	return &Leveled{s: l.Sugar().With("component", component)}
}

func (l *Leveled) Error(msg string, keysAndValues ...any) { l.s.Errorw(msg, keysAndValues...) }
func (l *Leveled) Warn(msg string, keysAndValues ...any)  { l.s.Warnw(msg, keysAndValues...) }
func (l *Leveled) Info(msg string, keysAndValues ...any)  { l.s.Infow(msg, keysAndValues...) }
func (l *Leveled) Debug(msg string, keysAndValues ...any) { l.s.Debugw(msg, keysAndValues...) }
