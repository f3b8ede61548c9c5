package prometheus

import "time"

// Config 指标客户端配置
type Config struct {
	// Namespace 指标名前缀，通常取应用名
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`

	HTTPServer HTTPServerConfig `mapstructure:"http_server"`

	// 运行时默认采集器
	EnableGoCollector      bool `mapstructure:"enable_go_collector"`
	EnableProcessCollector bool `mapstructure:"enable_process_collector"`
}

// HTTPServerConfig 指标 HTTP 端点配置
type HTTPServerConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Addr    string        `mapstructure:"addr"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"` // 读写超时
}

// DefaultConfig 默认配置，:9090/metrics 暴露指标
func DefaultConfig() *Config {
	return &Config{
		Namespace: "dbkit",
		HTTPServer: HTTPServerConfig{
			Enabled: true,
			Addr:    ":9090",
			Path:    "/metrics",
			Timeout: 10 * time.Second,
		},
		EnableGoCollector:      true,
		EnableProcessCollector: true,
	}
}

// applyDefaults 补齐 HTTP 端点缺省的路径与超时
func (c *Config) applyDefaults() {
	if c.HTTPServer.Path == "" {
		c.HTTPServer.Path = "/metrics"
	}
	if c.HTTPServer.Timeout <= 0 {
		c.HTTPServer.Timeout = 10 * time.Second
	}
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return ErrInvalidConfig
	}
	if c.HTTPServer.Enabled && c.HTTPServer.Addr == "" {
		return ErrInvalidConfig
	}
	return nil
}
