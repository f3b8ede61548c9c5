package prometheus

import "errors"

var (
	// ErrInvalidConfig 配置缺少必填项
	ErrInvalidConfig = errors.New("prometheus: invalid config")

	// ErrMetricExists 指标名重复注册
	ErrMetricExists = errors.New("prometheus: metric name already registered")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("prometheus: client is closed")
)
