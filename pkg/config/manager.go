package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager 配置读取入口，封装文件与环境变量两种来源
// 其余 pkg 只依赖这个接口，不直接接触 viper
type Manager interface {
	// Load 按 WithConfigName/WithConfigPaths 设定的搜索规则加载配置
	Load() error
	// LoadFile 加载指定路径的配置文件，格式按扩展名识别
	LoadFile(path string) error
	// BindEnv 绑定 prefix 开头的环境变量，键路径中的 "." 映射为 "_"
	// 如 "DBKIT" 前缀下 DBKIT_DB_HOST 对应 db.host
	BindEnv(prefix string)
	// Unmarshal 把整份配置解析到结构体
	Unmarshal(v any) error
	// UnmarshalKey 把 key 路径下的配置解析到 v
	UnmarshalKey(key string, v any) error

	// 类型化取值，键缺失时返回对应零值
	// GetDuration 接受 "5s"、"2m" 这类写法，GetStringSlice 对环境变量按空格切分
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string

	// IsSet 判断键是否有值，默认值与环境变量来源都算
	IsSet(key string) bool
	// Watch 注册配置文件变更回调，首次调用时启动文件监听
	Watch(callback func()) error
	// AllSettings 导出当前全部配置
	AllSettings() map[string]any
}

type manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	watchers  []func()
	watchOnce sync.Once
}

// NewManager 构建配置管理器，选项按传入顺序生效
func NewManager(opts ...Option) Manager {
	m := &manager{v: viper.New()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// normalizeReadError 把 viper 的各种"文件不存在"归一为 ErrConfigFileNotFound
func normalizeReadError(err error) error {
	var nf viper.ConfigFileNotFoundError
	if errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist) {
		return ErrConfigFileNotFound
	}
	return err
}

func (m *manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("load config: %w", normalizeReadError(err))
	}
	return nil
}

func (m *manager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.SetConfigFile(path)
	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("load %s: %w", path, normalizeReadError(err))
	}
	return nil
}

func (m *manager) BindEnv(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if prefix != "" {
		m.v.SetEnvPrefix(prefix)
	}
	m.v.AutomaticEnv()
}

func (m *manager) Unmarshal(v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.Unmarshal(v); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func (m *manager) UnmarshalKey(key string, v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.UnmarshalKey(key, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// get 在读锁下执行 viper 取值
func get[T any](m *manager, read func(string) T, key string) T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return read(key)
}

func (m *manager) GetString(key string) string { return get(m, m.v.GetString, key) }
func (m *manager) GetInt(key string) int { return get(m, m.v.GetInt, key) }
func (m *manager) GetBool(key string) bool { return get(m, m.v.GetBool, key) }
func (m *manager) GetDuration(key string) time.Duration { return get(m, m.v.GetDuration, key) }
func (m *manager) GetStringSlice(key string) []string { return get(m, m.v.GetStringSlice, key) }
func (m *manager) IsSet(key string) bool { return get(m, m.v.IsSet, key) }

func (m *manager) Watch(callback func()) error {
	m.mu.Lock()
	m.watchers = append(m.watchers, callback)
	m.mu.Unlock()

	// 监听只启动一次，后续调用仅追加回调
	m.watchOnce.Do(func() {
		m.v.OnConfigChange(func(fsnotify.Event) {
			m.mu.RLock()
			cbs := slices.Clone(m.watchers)
			m.mu.RUnlock()

			for _, cb := range cbs {
				cb()
			}
		})
		m.v.WatchConfig()
	})
	return nil
}

func (m *manager) AllSettings() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.AllSettings()
}
