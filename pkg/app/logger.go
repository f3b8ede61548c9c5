package app

import (
	"fmt"
	"sync"

	"github.com/lk2023060901/dbkit/pkg/logger"
)

// LoggerRegistry 持有应用内的具名 Logger，退出时统一 Sync
type LoggerRegistry struct {
	mu     sync.RWMutex
	byName map[string]logger.Logger
}

// NewLoggerRegistry 创建空注册表
func NewLoggerRegistry() *LoggerRegistry {
	return &LoggerRegistry{byName: make(map[string]logger.Logger)}
}

// Register 登记具名 Logger，同名覆盖
func (r *LoggerRegistry) Register(name string, l logger.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = l
}

// Get 取回具名 Logger，未注册时返回 nil
func (r *LoggerRegistry) Get(name string) logger.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// InitLoggers 按配置批量构建并登记具名 Logger
func (r *LoggerRegistry) InitLoggers(configs map[string]*logger.Config) error {
	for name, cfg := range configs {
		l, err := logger.New(cfg)
		if err != nil {
			return fmt.Errorf("logger %q: %w", name, err)
		}
		r.Register(name, l.Named(name))
	}
	return nil
}

// SyncAll 刷新全部已登记的 Logger
func (r *LoggerRegistry) SyncAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.byName {
		_ = l.Sync()
	}
}
