package config

import (
	"fmt"
	"os"
	"slices"
	"sync"
)

// Watcher 持有某个配置文件最近一次成功解析的结果，文件变更时自动重载
// 解析失败时保留旧配置，不会让运行中的程序拿到半成品
type Watcher[T any] struct {
	mgr     Manager
	path    string
	mu      sync.RWMutex
	current *T
	onAfter []func(*T)
}

// NewWatcher 加载 path 指向的配置并开始监听变更
func NewWatcher[T any](path string, opts ...Option) (*Watcher[T], error) {
	m := NewManager(opts...)
	if err := m.LoadFile(path); err != nil {
		return nil, err
	}

	cfg := new(T)
	if err := m.Unmarshal(cfg); err != nil {
		return nil, err
	}

	w := &Watcher[T]{mgr: m, path: path, current: cfg}
	if err := m.Watch(w.reload); err != nil {
		return nil, err
	}
	return w, nil
}

// Config 返回最近一次成功解析的配置快照
func (w *Watcher[T]) Config() *T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange 注册重载成功后的回调
func (w *Watcher[T]) OnChange(fn func(*T)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onAfter = append(w.onAfter, fn)
}

func (w *Watcher[T]) reload() {
	cfg := new(T)
	if err := w.mgr.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: reload %s failed: %v\n", w.path, err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	fns := slices.Clone(w.onAfter)
	w.mu.Unlock()

	for _, fn := range fns {
		fn(cfg)
	}
}
