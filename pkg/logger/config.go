// pkg/logger/config.go

package logger

// Level 日志等级
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	PanicLevel Level = "panic"
	FatalLevel Level = "fatal"
)

// Format 输出格式
type Format string

const (
	JSONFormat    Format = "json"
	ConsoleFormat Format = "console"
)

// RotationType 日志文件轮换方式
type RotationType string

const (
	RotationBySize RotationType = "size" // lumberjack
	RotationByTime RotationType = "time" // file-rotatelogs
)

// Config 日志配置
// 零值字段在 New 中用 DefaultConfig 补齐
type Config struct {
	Level  Level  `mapstructure:"level"`
	Format Format `mapstructure:"format"`

	EnableConsole bool   `mapstructure:"enable_console"`
	EnableFile    bool   `mapstructure:"enable_file"`
	OutputPath    string `mapstructure:"output_path"`

	TimeFormat string `mapstructure:"time_format"`

	Rotation RotationConfig `mapstructure:"rotation"`

	EnableStacktrace bool  `mapstructure:"enable_stacktrace"`
	StacktraceLevel  Level `mapstructure:"stacktrace_level"`

	// Development 启用彩色等级输出，并让 DPanic 真正 panic
	Development bool `mapstructure:"development"`
}

// RotationConfig 轮换参数，按 Type 取用对应的字段组
type RotationConfig struct {
	Type RotationType `mapstructure:"type"`

	// Type 为 size 时生效
	MaxSize    int  `mapstructure:"max_size"` // 单文件上限 (MB)
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"` // 保留天数
	Compress   bool `mapstructure:"compress"`

	// Type 为 time 时生效
	RotationTime    string `mapstructure:"rotation_time"`    // 轮换间隔，Go duration
	MaxAgeTime      string `mapstructure:"max_age_time"`     // 保留时长，Go duration
	RotationPattern string `mapstructure:"rotation_pattern"` // 文件名时间后缀，如 .%Y%m%d
}

// DefaultConfig 默认配置: info 等级，仅控制台输出
func DefaultConfig() *Config {
	return &Config{
		Level:         InfoLevel,
		Format:        ConsoleFormat,
		EnableConsole: true,
		TimeFormat:    "2006-01-02 15:04:05.000",
		Rotation: RotationConfig{
			Type:         RotationBySize,
			MaxSize:      100,
			MaxBackups:   10,
			MaxAge:       30,
			Compress:     true,
			RotationTime: "24h",
			MaxAgeTime:   "168h",
		},
		EnableStacktrace: true,
		StacktraceLevel:  ErrorLevel,
	}
}

// Validate 校验输出配置的一致性
func (c *Config) Validate() error {
	if c.EnableFile && c.OutputPath == "" {
		return ErrInvalidOutputPath
	}
	if !c.EnableConsole && !c.EnableFile {
		return ErrNoOutputEnabled
	}
	return nil
}
