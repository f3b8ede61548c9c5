// pkg/logger/logger.go

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/dbkit/pkg/config"
)

// ZapLogger 基于 zap SugaredLogger 实现 Logger 接口
type ZapLogger struct {
	sugar *zap.SugaredLogger
	cfg   *Config
}

var _ Logger = (*ZapLogger)(nil)

// New 创建 Logger
// cfg 为 nil 或只填了部分字段时，与 DefaultConfig 合并后生效
func New(cfg *Config) (*ZapLogger, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return build(merged)
}

// build 按配置组装 zap 核心，调用方负责 cfg 已通过 Validate
func build(cfg *Config) (*ZapLogger, error) {
	enc := newEncoder(cfg)
	level := zap.NewAtomicLevelAt(zapLevel(cfg.Level))

	cores := make([]zapcore.Core, 0, 2)
	if cfg.EnableConsole {
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level))
	}
	if cfg.EnableFile {
		w, err := newFileWriter(cfg)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(w), level))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapLevel(cfg.StacktraceLevel)))
	}

	zl := zap.New(zapcore.NewTee(cores...), opts...)
	return &ZapLogger{sugar: zl.Sugar(), cfg: cfg}, nil
}

// newEncoder 按 Format 选择编码器
func newEncoder(cfg *Config) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)
	ec.EncodeDuration = zapcore.StringDurationEncoder

	if cfg.Format == JSONFormat {
		return zapcore.NewJSONEncoder(ec)
	}

	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.Development {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

// zapLevel 把配置等级映射为 zap 等级，未知值按 info 处理
func zapLevel(l Level) zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case PanicLevel:
		return zapcore.PanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, kv...) }
func (l *ZapLogger) Info(msg string, kv ...any) { l.sugar.Infow(msg, kv...) }
func (l *ZapLogger) Warn(msg string, kv ...any) { l.sugar.Warnw(msg, kv...) }
func (l *ZapLogger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, kv...) }
func (l *ZapLogger) Fatal(msg string, kv ...any) { l.sugar.Fatalw(msg, kv...) }

// Named 派生具名子 Logger，名称逐级以 . 连接
func (l *ZapLogger) Named(name string) Logger {
	return &ZapLogger{sugar: l.sugar.Named(name), cfg: l.cfg}
}

// WithFields 派生携带固定字段的子 Logger
func (l *ZapLogger) WithFields(kv ...any) Logger {
	return &ZapLogger{sugar: l.sugar.With(kv...), cfg: l.cfg}
}

// Sync 刷新缓冲中的日志
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
