// Package wslog provides the default websocket.Logger implementation,
// built on go.uber.org/zap. The core package never imports zap itself
// (websocket.Logger is a plain interface); an embedder that wants
// structured, leveled logging without writing its own adapter wires
// this package in instead.
package wslog

import (
	"go.uber.org/zap"
)

// Logger adapts a *zap.SugaredLogger to websocket.Logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New wraps an existing zap logger. Passing nil is not valid; use
// NewProduction or NewDevelopment to build one from scratch.
func New(base *zap.Logger) *Logger {
	return &Logger{sugar: base.Sugar()}
}

// NewProduction builds a Logger around zap's production preset (JSON
// encoding, info level and above).
func NewProduction() (*Logger, error) {
	base, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return New(base), nil
}

// NewDevelopment builds a Logger around zap's development preset
// (console encoding, debug level and above, stack traces on warn+).
func NewDevelopment() (*Logger, error) {
	base, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return New(base), nil
}

func (l *Logger) Debugf(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes any buffered log entries. Call it before process exit.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
