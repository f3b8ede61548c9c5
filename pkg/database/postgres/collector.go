package postgres

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource 连接池统计来源，Registry 实现了该接口
type StatsSource interface {
	StatsAll() []*PoolStats
}

// StatsCollector 将注册表内全部连接池的统计导出为 Prometheus 指标，
// 每个指标带 alias 标签。
type StatsCollector struct {
	source StatsSource

	acquireCount    *prometheus.Desc
	acquireDuration *prometheus.Desc
	acquiredConns   *prometheus.Desc
	canceledAcquire *prometheus.Desc
	constructConns  *prometheus.Desc
	emptyAcquire    *prometheus.Desc
	idleConns       *prometheus.Desc
	maxConns        *prometheus.Desc
	totalConns      *prometheus.Desc
	newConns        *prometheus.Desc
	lifetimeDestroy *prometheus.Desc
	idleDestroy     *prometheus.Desc
	activeLeases    *prometheus.Desc
	queuedWaiters   *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

// NewStatsCollector 创建统计采集器，namespace 为空时使用 dbkit
func NewStatsCollector(source StatsSource, namespace string) *StatsCollector {
	if namespace == "" {
		namespace = "dbkit"
	}
	labels := []string{"alias"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, labels, nil)
	}
	return &StatsCollector{
		source:          source,
		acquireCount:    desc("acquire_total", "Cumulative count of successful connection acquires."),
		acquireDuration: desc("acquire_duration_seconds_total", "Total time spent acquiring connections."),
		acquiredConns:   desc("acquired_conns", "Connections currently checked out of the pool."),
		canceledAcquire: desc("canceled_acquire_total", "Cumulative count of acquires canceled by the caller."),
		constructConns:  desc("constructing_conns", "Connections currently being constructed."),
		emptyAcquire:    desc("empty_acquire_total", "Cumulative count of acquires that waited for a free connection."),
		idleConns:       desc("idle_conns", "Connections currently idle in the pool."),
		maxConns:        desc("max_conns", "Maximum size of the pool."),
		totalConns:      desc("total_conns", "Total connections currently in the pool."),
		newConns:        desc("new_conns_total", "Cumulative count of connections opened."),
		lifetimeDestroy: desc("max_lifetime_destroy_total", "Cumulative count of connections destroyed for exceeding max lifetime."),
		idleDestroy:     desc("max_idle_destroy_total", "Cumulative count of connections destroyed for exceeding max idle time."),
		activeLeases:    desc("active_leases", "Leases currently held by callers."),
		queuedWaiters:   desc("queued_waiters", "Callers currently waiting for a connection."),
	}
}

// Describe 实现 prometheus.Collector
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquireCount
	ch <- c.acquireDuration
	ch <- c.acquiredConns
	ch <- c.canceledAcquire
	ch <- c.constructConns
	ch <- c.emptyAcquire
	ch <- c.idleConns
	ch <- c.maxConns
	ch <- c.totalConns
	ch <- c.newConns
	ch <- c.lifetimeDestroy
	ch <- c.idleDestroy
	ch <- c.activeLeases
	ch <- c.queuedWaiters
}

// Collect 实现 prometheus.Collector
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.source.StatsAll() {
		counter := func(desc *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, v, s.Alias)
		}
		gauge := func(desc *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, s.Alias)
		}
		counter(c.acquireCount, float64(s.AcquireCount))
		counter(c.acquireDuration, s.AcquireDuration.Seconds())
		gauge(c.acquiredConns, float64(s.AcquiredConns))
		counter(c.canceledAcquire, float64(s.CanceledAcquireCount))
		gauge(c.constructConns, float64(s.ConstructingConns))
		counter(c.emptyAcquire, float64(s.EmptyAcquireCount))
		gauge(c.idleConns, float64(s.IdleConns))
		gauge(c.maxConns, float64(s.MaxConns))
		gauge(c.totalConns, float64(s.TotalConns))
		counter(c.newConns, float64(s.NewConnsCount))
		counter(c.lifetimeDestroy, float64(s.MaxLifetimeDestroyCount))
		counter(c.idleDestroy, float64(s.MaxIdleDestroyCount))
		gauge(c.activeLeases, float64(s.ActiveLeases))
		gauge(c.queuedWaiters, float64(s.QueuedWaiters))
	}
}
