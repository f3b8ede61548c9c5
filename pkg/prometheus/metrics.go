package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// register 登记指标，name 在 Client 内唯一
func (c *Client) register(name string, col prometheus.Collector) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.metrics[name]; dup {
		return ErrMetricExists
	}
	if err := c.reg.Register(col); err != nil {
		return err
	}
	c.metrics[name] = col
	return nil
}

// lookup 按名称取回指标，名称不存在或类型不符时返回 false
func lookup[T prometheus.Collector](c *Client, name string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	col, ok := c.metrics[name]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := col.(T)
	return t, ok
}

// NewCounter 创建并注册 Counter 向量
func (c *Client) NewCounter(name, help string, labels []string) (*CounterVec, error) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)

	if err := c.register(name, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// MustNewCounter 创建 Counter，失败则 panic
func (c *Client) MustNewCounter(name, help string, labels []string) *CounterVec {
	vec, err := c.NewCounter(name, help, labels)
	if err != nil {
		panic(err)
	}
	return vec
}

// GetCounter 取回已注册的 Counter
func (c *Client) GetCounter(name string) (*CounterVec, bool) {
	return lookup[*CounterVec](c, name)
}

// NewGauge 创建并注册 Gauge 向量
func (c *Client) NewGauge(name, help string, labels []string) (*GaugeVec, error) {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)

	if err := c.register(name, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// MustNewGauge 创建 Gauge，失败则 panic
func (c *Client) MustNewGauge(name, help string, labels []string) *GaugeVec {
	vec, err := c.NewGauge(name, help, labels)
	if err != nil {
		panic(err)
	}
	return vec
}

// GetGauge 取回已注册的 Gauge
func (c *Client) GetGauge(name string) (*GaugeVec, bool) {
	return lookup[*GaugeVec](c, name)
}

// NewHistogram 创建并注册 Histogram 向量
// buckets 为 nil 时使用 prometheus.DefBuckets
func (c *Client) NewHistogram(name, help string, labels []string, buckets []float64) (*HistogramVec, error) {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)

	if err := c.register(name, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// MustNewHistogram 创建 Histogram，失败则 panic
func (c *Client) MustNewHistogram(name, help string, labels []string, buckets []float64) *HistogramVec {
	vec, err := c.NewHistogram(name, help, labels, buckets)
	if err != nil {
		panic(err)
	}
	return vec
}

// GetHistogram 取回已注册的 Histogram
func (c *Client) GetHistogram(name string) (*HistogramVec, bool) {
	return lookup[*HistogramVec](c, name)
}

// NewSummary 创建并注册 Summary 向量
// objectives 为 nil 时使用 p50/p90/p99
func (c *Client) NewSummary(name, help string, labels []string, objectives map[float64]float64) (*SummaryVec, error) {
	if objectives == nil {
		objectives = map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}
	}

	vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  c.config.Namespace,
		Subsystem:  c.config.Subsystem,
		Name:       name,
		Help:       help,
		Objectives: objectives,
	}, labels)

	if err := c.register(name, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// MustNewSummary 创建 Summary，失败则 panic
func (c *Client) MustNewSummary(name, help string, labels []string, objectives map[float64]float64) *SummaryVec {
	vec, err := c.NewSummary(name, help, labels, objectives)
	if err != nil {
		panic(err)
	}
	return vec
}

// GetSummary 取回已注册的 Summary
func (c *Client) GetSummary(name string) (*SummaryVec, bool) {
	return lookup[*SummaryVec](c, name)
}

// RegisterCollector 注册自定义采集器，如连接池统计
func (c *Client) RegisterCollector(col Collector) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.reg.Register(col)
}

// MustRegisterCollector 注册自定义采集器，失败则 panic
func (c *Client) MustRegisterCollector(col Collector) {
	if err := c.RegisterCollector(col); err != nil {
		panic(err)
	}
}
