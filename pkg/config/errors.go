package config

import "errors"

var (
	// ErrConfigFileNotFound 目标配置文件不存在
	ErrConfigFileNotFound = errors.New("config: file not found")
	// ErrNilConfig 校验对象为 nil
	ErrNilConfig = errors.New("config: config cannot be nil")
	// ErrValidationFailed 配置校验未通过
	ErrValidationFailed = errors.New("config: validation failed")
	// ErrMergeFailed 配置合并失败
	ErrMergeFailed = errors.New("config: merge failed")
)
