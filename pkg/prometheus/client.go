package prometheus

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/dbkit/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 停止指标 HTTP 服务的等待上限
const shutdownTimeout = 5 * time.Second

// Client 指标客户端
// 持有独立的 Registry，按需在独立端口暴露 /metrics
type Client struct {
	config *Config
	reg    *prometheus.Registry
	log    logger.Logger

	// name 到已注册指标的映射，四类指标共用
	mu      sync.Mutex
	metrics map[string]prometheus.Collector

	server *http.Server
	closed atomic.Bool
}

// New 创建指标客户端，配置了 HTTPServer 时同时启动 HTTP 端点
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:  cfg,
		reg:     prometheus.NewRegistry(),
		log:     logger.Default().Named("prometheus"),
		metrics: make(map[string]prometheus.Collector),
	}

	if cfg.EnableGoCollector {
		c.reg.MustRegister(collectors.NewGoCollector())
	}
	if cfg.EnableProcessCollector {
		c.reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	if cfg.HTTPServer.Enabled {
		c.serve()
	}
	return c, nil
}

// Handler 返回指标 HTTP handler，可挂到调用方自己的 mux 上
func (c *Client) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// serve 在后台 goroutine 启动指标 HTTP 服务
func (c *Client) serve() {
	mux := http.NewServeMux()
	mux.Handle(c.config.HTTPServer.Path, c.Handler())

	c.server = &http.Server{
		Addr:         c.config.HTTPServer.Addr,
		Handler:      mux,
		ReadTimeout:  c.config.HTTPServer.Timeout,
		WriteTimeout: c.config.HTTPServer.Timeout,
	}

	go func() {
		err := c.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Error("metrics http server exited",
				"addr", c.config.HTTPServer.Addr,
				"error", err,
			)
		}
	}()
}

// Close 关闭客户端并停掉指标 HTTP 服务
// 重复调用返回 ErrClientClosed
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}
	if c.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return c.server.Shutdown(ctx)
}

// IsClosed 客户端是否已关闭
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
