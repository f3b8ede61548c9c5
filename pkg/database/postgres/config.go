package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lk2023060901/dbkit/pkg/config"
)

// DriverMode 语句执行协议
const (
	// DriverModeExtended 扩展协议，语句在服务端预编译并缓存
	DriverModeExtended = "extended"
	// DriverModeSimple 简单协议，参数内联后单次往返
	DriverModeSimple = "simple"
)

// DefaultAlias 未指定别名时使用的连接池名称
const DefaultAlias = "default"

// DBConfig 数据库连接配置
type DBConfig struct {
	Host     string `json:"host" yaml:"host" mapstructure:"host" validate:"required"`
	Port     int    `json:"port" yaml:"port" mapstructure:"port" validate:"required,min=1,max=65535"`
	User     string `json:"user" yaml:"user" mapstructure:"user" validate:"required"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	DBName   string `json:"dbname" yaml:"dbname" mapstructure:"dbname" validate:"required"`
	SSLMode  string `json:"sslmode" yaml:"sslmode" mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// BuildDSN 生成连接串
func (c *DBConfig) BuildDSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

// PoolConfig 连接池规模配置
type PoolConfig struct {
	// MinConns 池内保有的最小连接数
	MinConns int32 `json:"min_conns" yaml:"min_conns" mapstructure:"min_conns" validate:"min=0"`
	// MaxConns 池内允许的最大连接数，同时也是并发租约上限
	MaxConns int32 `json:"max_conns" yaml:"max_conns" mapstructure:"max_conns" validate:"required,min=1"`
	// Increment 初始化时预热的连接数
	Increment int32 `json:"increment" yaml:"increment" mapstructure:"increment" validate:"min=0"`
	// PingInterval 空闲连接健康检查周期
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval" mapstructure:"ping_interval"`
	// MaxConnLifetime 连接最长存活时间
	MaxConnLifetime time.Duration `json:"max_conn_lifetime" yaml:"max_conn_lifetime" mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime 连接最长空闲时间
	MaxConnIdleTime time.Duration `json:"max_conn_idle_time" yaml:"max_conn_idle_time" mapstructure:"max_conn_idle_time"`
}

// QueueConfig 连接耗尽后的排队配置
type QueueConfig struct {
	// MaxWaiters 允许排队等待的最大调用方数量，超出的请求立即失败
	MaxWaiters int32 `json:"max_waiters" yaml:"max_waiters" mapstructure:"max_waiters" validate:"min=0"`
	// WaitTimeout 排队等待的最长时间，0 表示只受调用方 context 约束
	WaitTimeout time.Duration `json:"wait_timeout" yaml:"wait_timeout" mapstructure:"wait_timeout"`
}

// BindLogConfig 绑定参数日志配置
type BindLogConfig struct {
	// Environments 启用绑定日志的环境名单，匹配不区分大小写
	Environments []string `json:"environments" yaml:"environments" mapstructure:"environments"`
}

// Config 连接池配置
type Config struct {
	// Alias 连接池别名，注册表内唯一
	Alias string `json:"alias" yaml:"alias" mapstructure:"alias" validate:"required"`
	// DB 数据库连接配置
	DB DBConfig `json:"db" yaml:"db" mapstructure:"db"`
	// Pool 连接池规模配置
	Pool PoolConfig `json:"pool" yaml:"pool" mapstructure:"pool"`
	// Queue 排队配置
	Queue QueueConfig `json:"queue" yaml:"queue" mapstructure:"queue"`
	// ConnectTimeout 建立连接超时时间
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"`
	// QueryTimeout 单条语句执行超时时间，0 表示不限制
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout" mapstructure:"query_timeout"`
	// CloseGrace 关闭连接池时等待在途租约的宽限时间
	CloseGrace time.Duration `json:"close_grace" yaml:"close_grace" mapstructure:"close_grace"`
	// DriverMode 语句执行协议，extended 或 simple
	DriverMode string `json:"driver_mode" yaml:"driver_mode" mapstructure:"driver_mode" validate:"omitempty,oneof=extended simple"`
	// Environment 当前运行环境，用于判定是否输出绑定日志
	Environment string `json:"environment" yaml:"environment" mapstructure:"environment"`
	// BindLog 绑定参数日志配置
	BindLog BindLogConfig `json:"bind_log" yaml:"bind_log" mapstructure:"bind_log"`
}

var validate = config.NewValidator()

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Alias: DefaultAlias,
		DB: DBConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "postgres",
			SSLMode: "disable",
		},
		Pool: PoolConfig{
			MinConns:        2,
			MaxConns:        10,
			Increment:       1,
			PingInterval:    time.Minute,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Queue: QueueConfig{
			MaxWaiters:  64,
			WaitTimeout: 60 * time.Second,
		},
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
		CloseGrace:     10 * time.Second,
		DriverMode:     DriverModeExtended,
		Environment:    "",
		BindLog: BindLogConfig{
			Environments: []string{"dev", "development"},
		},
	}
}

// MergeConfig 合并配置，cfg 中的非零字段覆盖默认值
func MergeConfig(defaultCfg, cfg *Config) (*Config, error) {
	return config.MergeConfig(defaultCfg, cfg)
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if err := validate.Validate(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Pool.MinConns > c.Pool.MaxConns {
		return fmt.Errorf("%w: pool min_conns (%d) exceeds max_conns (%d)",
			ErrInvalidConfig, c.Pool.MinConns, c.Pool.MaxConns)
	}
	if c.Pool.PingInterval < 0 || c.Pool.MaxConnLifetime < 0 || c.Pool.MaxConnIdleTime < 0 {
		return fmt.Errorf("%w: pool durations must not be negative", ErrInvalidConfig)
	}
	if c.Queue.WaitTimeout < 0 {
		return fmt.Errorf("%w: queue wait_timeout must not be negative", ErrInvalidConfig)
	}
	if c.ConnectTimeout < 0 || c.QueryTimeout < 0 || c.CloseGrace < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// BindLogEnabled 判定当前环境是否启用绑定参数日志
func (c *Config) BindLogEnabled() bool {
	if c.Environment == "" {
		return false
	}
	for _, env := range c.BindLog.Environments {
		if strings.EqualFold(env, c.Environment) {
			return true
		}
	}
	return false
}

// queryExecMode 将 DriverMode 映射为 pgx 执行模式
func (c *Config) queryExecMode() pgx.QueryExecMode {
	if c.DriverMode == DriverModeSimple {
		return pgx.QueryExecModeSimpleProtocol
	}
	return pgx.QueryExecModeCacheStatement
}

// LoadEnvConfig 从 DBKIT_ 前缀环境变量加载配置，未设置的字段使用默认值。
//
// 支持的变量：
//
//	DBKIT_ALIAS                DBKIT_ENVIRONMENT
//	DBKIT_DB_HOST              DBKIT_DB_PORT
//	DBKIT_DB_USER              DBKIT_DB_PASSWORD
//	DBKIT_DB_DBNAME            DBKIT_DB_SSLMODE
//	DBKIT_POOL_MIN_CONNS       DBKIT_POOL_MAX_CONNS
//	DBKIT_POOL_INCREMENT       DBKIT_POOL_PING_INTERVAL
//	DBKIT_POOL_MAX_CONN_LIFETIME DBKIT_POOL_MAX_CONN_IDLE_TIME
//	DBKIT_QUEUE_MAX_WAITERS    DBKIT_QUEUE_WAIT_TIMEOUT
//	DBKIT_CONNECT_TIMEOUT      DBKIT_QUERY_TIMEOUT
//	DBKIT_CLOSE_GRACE          DBKIT_DRIVER_MODE
//	DBKIT_BIND_LOG_ENVIRONMENTS（空格分隔）
func LoadEnvConfig() (*Config, error) {
	m := config.NewManager()
	m.BindEnv("DBKIT")

	overlay := &Config{
		Alias:       m.GetString("alias"),
		Environment: m.GetString("environment"),
		DB: DBConfig{
			Host:     m.GetString("db.host"),
			Port:     m.GetInt("db.port"),
			User:     m.GetString("db.user"),
			Password: m.GetString("db.password"),
			DBName:   m.GetString("db.dbname"),
			SSLMode:  m.GetString("db.sslmode"),
		},
		Pool: PoolConfig{
			MinConns:        int32(m.GetInt("pool.min_conns")),
			MaxConns:        int32(m.GetInt("pool.max_conns")),
			Increment:       int32(m.GetInt("pool.increment")),
			PingInterval:    m.GetDuration("pool.ping_interval"),
			MaxConnLifetime: m.GetDuration("pool.max_conn_lifetime"),
			MaxConnIdleTime: m.GetDuration("pool.max_conn_idle_time"),
		},
		Queue: QueueConfig{
			MaxWaiters:  int32(m.GetInt("queue.max_waiters")),
			WaitTimeout: m.GetDuration("queue.wait_timeout"),
		},
		ConnectTimeout: m.GetDuration("connect_timeout"),
		QueryTimeout:   m.GetDuration("query_timeout"),
		CloseGrace:     m.GetDuration("close_grace"),
		DriverMode:     m.GetString("driver_mode"),
		BindLog: BindLogConfig{
			Environments: m.GetStringSlice("bind_log.environments"),
		},
	}

	merged, err := MergeConfig(DefaultConfig(), overlay)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}
