package websocket

// Logger is the caller-supplied sink for diagnostic output; entries
// carry no semantic weight of their own. The core never imports a
// logging package directly so it can run inside any embedder's logging
// setup; internal/wslog is the concrete implementation this module
// ships, built on go.uber.org/zap.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// nopLogger discards everything. Used when a ConnState is constructed
// without an explicit Logger.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
