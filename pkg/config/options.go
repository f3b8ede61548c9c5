package config

import "github.com/spf13/viper"

// Option Manager 的构造选项
type Option func(*manager)

// WithDefaults 预置默认值，文件与环境变量中的同名键优先
func WithDefaults(defaults map[string]any) Option {
	return func(m *manager) {
		for k, val := range defaults {
			m.v.SetDefault(k, val)
		}
	}
}

// WithConfigType 指定配置格式，如 "yaml"、"json"
func WithConfigType(typ string) Option {
	return func(m *manager) { m.v.SetConfigType(typ) }
}

// WithConfigName 指定配置文件名，不含扩展名，配合 Load 使用
func WithConfigName(name string) Option {
	return func(m *manager) { m.v.SetConfigName(name) }
}

// WithConfigPaths 追加配置搜索路径，配合 Load 使用
func WithConfigPaths(paths ...string) Option {
	return func(m *manager) {
		for _, p := range paths {
			m.v.AddConfigPath(p)
		}
	}
}

// WithEnvPrefix 构造时即绑定环境变量，等价于创建后调用 BindEnv
func WithEnvPrefix(prefix string) Option {
	return func(m *manager) { m.BindEnv(prefix) }
}

// WithViper 使用外部装配好的 viper 实例，nil 时忽略
func WithViper(v *viper.Viper) Option {
	return func(m *manager) {
		if v != nil {
			m.v = v
		}
	}
}
