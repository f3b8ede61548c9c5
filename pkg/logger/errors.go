// pkg/logger/errors.go

package logger

import "errors"

var (
	// ErrInvalidOutputPath 启用了文件输出但未给出路径
	ErrInvalidOutputPath = errors.New("file output enabled without output path")

	// ErrNoOutputEnabled 控制台和文件输出都被关闭
	ErrNoOutputEnabled = errors.New("no log output enabled")
)
