// pkg/logger/rotation.go

package logger

import (
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 时间轮换的兜底参数，配置中的时长解析失败时使用
const (
	fallbackRotationTime = 24 * time.Hour
	fallbackMaxAge       = 7 * 24 * time.Hour
)

// newFileWriter 按轮换配置构造日志文件 writer
// 未知轮换类型按大小轮换处理
func newFileWriter(cfg *Config) (io.Writer, error) {
	if cfg.Rotation.Type == RotationByTime {
		return newTimeWriter(cfg)
	}
	return newSizeWriter(cfg), nil
}

// newSizeWriter 按大小轮换，底层为 lumberjack
func newSizeWriter(cfg *Config) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.OutputPath,
		MaxSize:    cfg.Rotation.MaxSize,
		MaxBackups: cfg.Rotation.MaxBackups,
		MaxAge:     cfg.Rotation.MaxAge,
		Compress:   cfg.Rotation.Compress,
		LocalTime:  true,
	}
}

// newTimeWriter 按时间轮换，底层为 file-rotatelogs
// 实际文件名带时间后缀，OutputPath 是指向当前文件的软链接
func newTimeWriter(cfg *Config) (io.Writer, error) {
	interval, err := time.ParseDuration(cfg.Rotation.RotationTime)
	if err != nil {
		interval = fallbackRotationTime
	}
	keep, err := time.ParseDuration(cfg.Rotation.MaxAgeTime)
	if err != nil {
		keep = fallbackMaxAge
	}

	suffix := cfg.Rotation.RotationPattern
	if suffix == "" {
		suffix = ".%Y%m%d%H"
	}

	return rotatelogs.New(
		cfg.OutputPath+suffix,
		rotatelogs.WithLinkName(cfg.OutputPath),
		rotatelogs.WithRotationTime(interval),
		rotatelogs.WithMaxAge(keep),
	)
}
