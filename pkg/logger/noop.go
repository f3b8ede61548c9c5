// pkg/logger/noop.go

package logger

// NoopLogger 丢弃全部日志
// 用于测试，以及调用方未注入 Logger 时的兜底
type NoopLogger struct{}

var _ Logger = NoopLogger{}

// NewNoop 创建 NoopLogger
func NewNoop() Logger { return NoopLogger{} }

func (NoopLogger) Debug(string, ...any) {}
func (NoopLogger) Info(string, ...any) {}
func (NoopLogger) Warn(string, ...any) {}
func (NoopLogger) Error(string, ...any) {}
func (NoopLogger) Fatal(string, ...any) {}

func (n NoopLogger) Named(string) Logger { return n }
func (n NoopLogger) WithFields(...any) Logger { return n }
func (NoopLogger) Sync() error { return nil }
