// pkg/logger/default.go

package logger

import (
	"os"
	"strconv"
	"sync"
)

// 进程级默认 Logger
// 未显式注入 Logger 的组件通过 Default 取用
var (
	defaultMu sync.RWMutex
	defaultL  Logger
)

// Default 返回默认 Logger，首次调用时按 DefaultConfig 惰性构建
func Default() Logger {
	defaultMu.RLock()
	l := defaultL
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultL == nil {
		if built, err := New(nil); err == nil {
			defaultL = built
		} else {
			defaultL = NewNoop()
		}
	}
	return defaultL
}

// SetDefault 替换默认 Logger，nil 被忽略
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultL = l
	defaultMu.Unlock()
}

// InitDefaultFromEnv 读取的环境变量
const (
	envLogLevel       = "DBKIT_LOG_LEVEL"
	envLogFormat      = "DBKIT_LOG_FORMAT"
	envLogPath        = "DBKIT_LOG_PATH"
	envLogConsole     = "DBKIT_LOG_CONSOLE"
	envLogDevelopment = "DBKIT_LOG_DEVELOPMENT"
)

// InitDefaultFromEnv 从环境变量构建默认 Logger
// 以 DefaultConfig 为基底逐项覆盖，DBKIT_LOG_PATH 非空时自动启用文件输出
func InitDefaultFromEnv() error {
	cfg := DefaultConfig()
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.Level = Level(v)
	}
	if v := os.Getenv(envLogFormat); v != "" {
		cfg.Format = Format(v)
	}
	if v := os.Getenv(envLogPath); v != "" {
		cfg.OutputPath = v
		cfg.EnableFile = true
	}
	if v := os.Getenv(envLogConsole); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EnableConsole = b
		}
	}
	if v := os.Getenv(envLogDevelopment); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Development = b
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	l, err := build(cfg)
	if err != nil {
		return err
	}
	SetDefault(l)
	return nil
}
