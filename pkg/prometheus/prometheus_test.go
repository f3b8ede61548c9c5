package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestClient 创建不带 HTTP 服务的客户端，保证测试无副作用
func newTestClient(t *testing.T) *Client {
	t.Helper()

	c, err := New(&Config{
		Namespace:  "dbkit",
		Subsystem:  "test",
		HTTPServer: HTTPServerConfig{Enabled: false},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Namespace != "dbkit" {
		t.Errorf("Namespace = %s, want dbkit", cfg.Namespace)
	}
	if !cfg.HTTPServer.Enabled {
		t.Error("HTTPServer.Enabled = false, want true")
	}
	if cfg.HTTPServer.Addr != ":9090" {
		t.Errorf("Addr = %s, want :9090", cfg.HTTPServer.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "empty namespace",
			config:  &Config{},
			wantErr: true,
		},
		{
			name: "http server enabled without addr",
			config: &Config{
				Namespace:  "test",
				HTTPServer: HTTPServerConfig{Enabled: true},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{
		Namespace:  "test",
		HTTPServer: HTTPServerConfig{Enabled: true, Addr: ":9100"},
	}
	cfg.applyDefaults()

	if cfg.HTTPServer.Path != "/metrics" {
		t.Errorf("Path = %s, want /metrics", cfg.HTTPServer.Path)
	}
	if cfg.HTTPServer.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.HTTPServer.Timeout)
	}
}

func TestNewCounter(t *testing.T) {
	c := newTestClient(t)

	counter, err := c.NewCounter("queries_total", "Total queries executed", []string{"alias"})
	if err != nil {
		t.Fatalf("NewCounter() error = %v", err)
	}

	counter.WithLabelValues("default").Inc()
	counter.With(Labels{"alias": "default"}).Add(2)

	// 名称重复注册被拒绝
	if _, err := c.NewCounter("queries_total", "dup", []string{"alias"}); !errors.Is(err, ErrMetricExists) {
		t.Errorf("duplicate NewCounter() error = %v, want ErrMetricExists", err)
	}

	got, ok := c.GetCounter("queries_total")
	if !ok || got != counter {
		t.Error("GetCounter() should return the registered counter")
	}
	if _, ok := c.GetCounter("missing"); ok {
		t.Error("GetCounter(missing) should return false")
	}
}

func TestNewGauge(t *testing.T) {
	c := newTestClient(t)

	gauge, err := c.NewGauge("pool_active", "Active connections", []string{"alias"})
	if err != nil {
		t.Fatalf("NewGauge() error = %v", err)
	}

	gauge.WithLabelValues("default").Set(5)
	gauge.WithLabelValues("default").Dec()

	if _, ok := c.GetGauge("pool_active"); !ok {
		t.Error("GetGauge() should find the registered gauge")
	}
}

func TestNewHistogram(t *testing.T) {
	c := newTestClient(t)

	// nil buckets 使用默认桶
	hist, err := c.NewHistogram("query_duration_seconds", "Query latency", []string{"alias"}, nil)
	if err != nil {
		t.Fatalf("NewHistogram() error = %v", err)
	}

	hist.WithLabelValues("default").Observe(0.05)

	if _, ok := c.GetHistogram("query_duration_seconds"); !ok {
		t.Error("GetHistogram() should find the registered histogram")
	}
}

func TestNewSummary(t *testing.T) {
	c := newTestClient(t)

	sum, err := c.NewSummary("batch_size", "Statements per batch", nil, nil)
	if err != nil {
		t.Fatalf("NewSummary() error = %v", err)
	}

	sum.WithLabelValues().Observe(12)

	if _, ok := c.GetSummary("batch_size"); !ok {
		t.Error("GetSummary() should find the registered summary")
	}
}

// TestLookupWrongType 同名指标按错误类型取回应失败
func TestLookupWrongType(t *testing.T) {
	c := newTestClient(t)

	if _, err := c.NewCounter("mixed", "counter registered first", nil); err != nil {
		t.Fatalf("NewCounter() error = %v", err)
	}

	if _, ok := c.GetGauge("mixed"); ok {
		t.Error("GetGauge() on a counter name should return false")
	}
	if _, ok := c.GetCounter("mixed"); !ok {
		t.Error("GetCounter() on a counter name should return true")
	}
}

// TestHandler 通过 HTTP handler 导出已注册指标
func TestHandler(t *testing.T) {
	c := newTestClient(t)

	counter := c.MustNewCounter("handler_hits_total", "Handler exposure check", nil)
	counter.WithLabelValues().Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "dbkit_test_handler_hits_total") {
		t.Errorf("metrics output missing counter, body:\n%s", body)
	}
}

func TestClientClose(t *testing.T) {
	c := newTestClient(t)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !c.IsClosed() {
		t.Error("IsClosed() = false after Close()")
	}

	// 重复关闭被拒绝
	if err := c.Close(); !errors.Is(err, ErrClientClosed) {
		t.Errorf("second Close() error = %v, want ErrClientClosed", err)
	}

	// 关闭后拒绝注册新指标
	if _, err := c.NewCounter("late", "registered after close", nil); !errors.Is(err, ErrClientClosed) {
		t.Errorf("NewCounter() after close error = %v, want ErrClientClosed", err)
	}
	if err := c.RegisterCollector(nil); !errors.Is(err, ErrClientClosed) {
		t.Errorf("RegisterCollector() after close error = %v, want ErrClientClosed", err)
	}
}
