// pkg/logger/interface.go

package logger

// Logger 结构化日志接口
// 字段以 key-value 交替传入: log.Info("pool ready", "alias", "default")
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	Fatal(msg string, kv ...any)

	// Named 派生具名子 Logger，名称逐级以 . 连接
	Named(name string) Logger

	// WithFields 派生携带固定字段的子 Logger
	WithFields(kv ...any) Logger

	// Sync 刷新缓冲中的日志，进程退出前调用
	Sync() error
}
