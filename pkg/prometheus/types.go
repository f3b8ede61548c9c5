package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 别名 client_golang 的常用类型，调用方不必再引它的包
type (
	Labels       = prometheus.Labels
	Collector    = prometheus.Collector
	CounterVec   = prometheus.CounterVec
	GaugeVec     = prometheus.GaugeVec
	HistogramVec = prometheus.HistogramVec
	SummaryVec   = prometheus.SummaryVec
)
