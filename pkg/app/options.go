package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/dbkit/pkg/logger"
)

// Option 修改应用选项
type Option func(*Options)

// Options 应用选项
type Options struct {
	ID       string
	Name     string
	Version  string
	Metadata map[string]string

	// StopTimeout Shutdown 时等待 Server 停止的上限
	StopTimeout time.Duration

	Logger       logger.Logger
	LogConfig    *logger.Config
	NamedLoggers map[string]*logger.Config
}

// DefaultOptions 默认选项，ID 取随机 UUID
func DefaultOptions() Options {
	return Options{
		ID:          uuid.NewString(),
		Name:        AppName,
		Version:     Version,
		Metadata:    make(map[string]string),
		StopTimeout: 30 * time.Second,
		Logger:      logger.Default(),
	}
}

// WithID 指定应用实例 ID
func WithID(id string) Option {
	return func(o *Options) { o.ID = id }
}

// WithName 指定应用名，同时作为主日志名称
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithVersion 指定应用版本
func WithVersion(v string) Option {
	return func(o *Options) { o.Version = v }
}

// WithMetadata 附加应用元数据
func WithMetadata(md map[string]string) Option {
	return func(o *Options) { o.Metadata = md }
}

// WithStopTimeout 指定优雅停止的等待上限
func WithStopTimeout(t time.Duration) Option {
	return func(o *Options) { o.StopTimeout = t }
}

// WithLogger 注入应用主日志
func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithLogConfig 指定主日志配置，NewBaseApp 时构建
func WithLogConfig(cfg *logger.Config) Option {
	return func(o *Options) { o.LogConfig = cfg }
}

// WithNamedLoggers 指定具名日志配置，Run 时批量构建
func WithNamedLoggers(loggers map[string]*logger.Config) Option {
	return func(o *Options) { o.NamedLoggers = loggers }
}
