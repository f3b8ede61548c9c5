package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/lk2023060901/dbkit/pkg/logger"
)

// 集成测试配置（需要本地 PostgreSQL，跑 docker-compose 里的测试库）
func integrationConfig(alias string) *Config {
	return &Config{
		Alias: alias,
		DB: DBConfig{
			Host:     "localhost",
			Port:     25432,
			User:     "dbkit",
			Password: "dbkit_pass",
			DBName:   "dbkit_test",
			SSLMode:  "disable",
		},
		Pool: PoolConfig{
			MinConns:        1,
			MaxConns:        5,
			Increment:       2,
			PingInterval:    30 * time.Second,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
		},
		Queue: QueueConfig{
			MaxWaiters:  4,
			WaitTimeout: 2 * time.Second,
		},
		ConnectTimeout: 5 * time.Second,
		QueryTimeout:   10 * time.Second,
		CloseGrace:     2 * time.Second,
	}
}

func newTestRegistry(t *testing.T, cfgs ...*Config) *Registry {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	reg := NewRegistry()
	ctx := context.Background()
	for _, cfg := range cfgs {
		if err := reg.Initialize(ctx, cfg); err != nil {
			t.Fatalf("Failed to initialize pool %q: %v", cfg.Alias, err)
		}
	}
	t.Cleanup(func() { _ = reg.CloseAll(context.Background()) })
	return reg
}

func newTestPool(t *testing.T, cfg *Config) *Pool {
	t.Helper()
	reg := newTestRegistry(t, cfg)
	pool, err := reg.Pool(cfg.Alias)
	if err != nil {
		t.Fatalf("Failed to look up pool: %v", err)
	}
	return pool
}

func createTestTable(t *testing.T, pool *Pool, name string) {
	t.Helper()
	ctx := context.Background()
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGINT PRIMARY KEY, val TEXT)", name)
	if _, err := pool.Execute(ctx, ddl); err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}
	if _, err := pool.Execute(ctx, "TRUNCATE "+name); err != nil {
		t.Fatalf("Failed to truncate test table: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Execute(context.Background(), "DROP TABLE IF EXISTS "+name)
	})
}

func TestAcquireFromClosedPool(t *testing.T) {
	p := &Pool{
		alias: "closed",
		cfg:   DefaultConfig(),
		gate:  semaphore.NewWeighted(1),
		log:   logger.NewNoop(),
	}
	p.closed.Store(true)

	_, err := p.Acquire(context.Background())
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed, got: %v", err)
	}
	var acqErr *ConnectionAcquisitionError
	if !errors.As(err, &acqErr) {
		t.Errorf("Expected ConnectionAcquisitionError, got %T", err)
	}
}

func TestAcquireQueueFull(t *testing.T) {
	// A zero-permit gate models a pool with every connection leased
	// and every waiter slot taken.
	p := &Pool{
		alias: "busy",
		cfg:   DefaultConfig(),
		gate:  semaphore.NewWeighted(0),
		log:   logger.NewNoop(),
	}

	start := time.Now()
	_, err := p.Acquire(context.Background())
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Queue overflow must fail immediately, took %v", elapsed)
	}
}

func TestConnReleaseExactlyOnce(t *testing.T) {
	p := &Pool{
		alias: "release",
		cfg:   DefaultConfig(),
		gate:  semaphore.NewWeighted(1),
		log:   logger.NewNoop(),
	}
	if !p.gate.TryAcquire(1) {
		t.Fatal("Failed to take the only permit")
	}
	p.leases.Add(1)

	conn := &Conn{pool: p}
	conn.Release()
	conn.Release() // second call must be a no-op

	if got := p.leases.Load(); got != 0 {
		t.Errorf("Expected 0 active leases after release, got %d", got)
	}
	if !p.gate.TryAcquire(1) {
		t.Error("Permit should be back after release")
	}
	if p.gate.TryAcquire(1) {
		t.Error("Double release must not mint extra permits")
	}
}

func TestPoolExecute(t *testing.T) {
	pool := newTestPool(t, integrationConfig("default"))
	ctx := context.Background()

	res, err := pool.Execute(ctx, "SELECT n AS num FROM generate_series(1, 3) AS n")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(res.Rows))
	}
	if res.Rows[0]["num"] != int32(1) {
		t.Errorf("Unexpected first row: %v", res.Rows[0])
	}
}

func TestPoolExecuteDML(t *testing.T) {
	pool := newTestPool(t, integrationConfig("default"))
	createTestTable(t, pool, "dbkit_execute_test")
	ctx := context.Background()

	res, err := pool.Execute(ctx,
		"INSERT INTO dbkit_execute_test (id, val) VALUES ($1, $2), ($3, $4)",
		1, "a", 2, "b")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if res.RowsAffected != 2 {
		t.Errorf("Expected 2 rows affected, got %d", res.RowsAffected)
	}

	res, err = pool.Execute(ctx, "UPDATE dbkit_execute_test SET val = $1 WHERE id = $2", "c", 1)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if res.RowsAffected != 1 {
		t.Errorf("Expected 1 row affected, got %d", res.RowsAffected)
	}
}

func TestPoolExecuteReleasesOnFailure(t *testing.T) {
	cfg := integrationConfig("default")
	cfg.Pool.MinConns = 0
	cfg.Pool.MaxConns = 1
	cfg.Queue.MaxWaiters = 0
	pool := newTestPool(t, cfg)
	ctx := context.Background()

	// With a single connection and no waiter slots, a leaked lease
	// would make every later call fail with a full queue.
	for i := 0; i < 5; i++ {
		_, err := pool.Execute(ctx, "SELECT * FROM table_that_does_not_exist")
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			t.Fatalf("Expected ExecutionError, got: %v", err)
		}
	}

	if _, err := pool.Execute(ctx, "SELECT 1"); err != nil {
		t.Fatalf("Pool should still serve after failed statements: %v", err)
	}
}

func TestPoolQueueOverflow(t *testing.T) {
	cfg := integrationConfig("default")
	cfg.Pool.MinConns = 0
	cfg.Pool.MaxConns = 1
	cfg.Queue.MaxWaiters = 0
	pool := newTestPool(t, cfg)
	ctx := context.Background()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	defer conn.Release()

	_, err = pool.Execute(ctx, "SELECT 1")
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull with zero waiter slots, got: %v", err)
	}

	conn.Release()
	if _, err := pool.Execute(ctx, "SELECT 1"); err != nil {
		t.Fatalf("Pool should serve again after release: %v", err)
	}
}

func TestPoolQueueTimeout(t *testing.T) {
	cfg := integrationConfig("default")
	cfg.Pool.MinConns = 0
	cfg.Pool.MaxConns = 1
	cfg.Queue.MaxWaiters = 2
	cfg.Queue.WaitTimeout = 300 * time.Millisecond
	pool := newTestPool(t, cfg)
	ctx := context.Background()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	defer conn.Release()

	start := time.Now()
	_, err = pool.Execute(ctx, "SELECT 1")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrQueueTimeout) {
		t.Errorf("Expected ErrQueueTimeout, got: %v", err)
	}
	if elapsed < 250*time.Millisecond {
		t.Errorf("Waiter should have queued for the timeout, returned after %v", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Waiter must not hang past the timeout, returned after %v", elapsed)
	}
}

func TestPoolSaturated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pool.MaxConns = 2
	p := &Pool{
		alias: "sat",
		cfg:   cfg,
		gate:  semaphore.NewWeighted(3),
		log:   logger.NewNoop(),
	}

	if p.saturated() {
		t.Error("Fresh pool must not report saturation")
	}
	p.leases.Add(1)
	if p.saturated() {
		t.Error("Pool with a free connection must not report saturation")
	}
	p.leases.Add(1)
	if !p.saturated() {
		t.Error("Pool with every connection leased must report saturation")
	}
	p.leases.Add(-1)
	if p.saturated() {
		t.Error("Released lease must clear saturation")
	}
}

func TestPoolQueuedWaitersGauge(t *testing.T) {
	cfg := integrationConfig("default")
	cfg.Pool.MinConns = 1
	cfg.Pool.MaxConns = 1
	cfg.Queue.MaxWaiters = 2
	cfg.Queue.WaitTimeout = 5 * time.Second
	pool := newTestPool(t, cfg)
	ctx := context.Background()

	// 空闲池上的获取被即时满足，不应出现在排队深度里
	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if got := pool.Stats().QueuedWaiters; got != 0 {
		t.Errorf("Instant acquire must not count as queued, got %d", got)
	}

	// 唯一连接被占住，下一个调用方真正排队
	acquired := make(chan error, 1)
	go func() {
		c, err := pool.Acquire(ctx)
		if err == nil {
			c.Release()
		}
		acquired <- err
	}()

	deadline := time.After(2 * time.Second)
	for pool.Stats().QueuedWaiters == 0 {
		select {
		case <-deadline:
			t.Fatal("Blocked caller never showed up in QueuedWaiters")
		case <-time.After(10 * time.Millisecond):
		}
	}

	conn.Release()
	if err := <-acquired; err != nil {
		t.Fatalf("Queued caller should proceed after release: %v", err)
	}
	if got := pool.Stats().QueuedWaiters; got != 0 {
		t.Errorf("Queue depth should drop back to zero, got %d", got)
	}
}

func TestPoolWarmUp(t *testing.T) {
	cfg := integrationConfig("default")
	cfg.Pool.MinConns = 0
	cfg.Pool.Increment = 3
	pool := newTestPool(t, cfg)

	stats := pool.Stats()
	if stats.NewConnsCount < 3 {
		t.Errorf("Expected at least 3 connections opened by warm-up, got %d", stats.NewConnsCount)
	}
}

func TestPoolCloseGrace(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := integrationConfig("default")
	cfg.Pool.MinConns = 0
	cfg.CloseGrace = 500 * time.Millisecond
	reg := NewRegistry()
	ctx := context.Background()
	if err := reg.Initialize(ctx, cfg); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	pool, err := reg.Pool("default")
	if err != nil {
		t.Fatalf("Pool() failed: %v", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	start := time.Now()
	if err := reg.ClosePool(ctx, "default"); err != nil {
		t.Fatalf("ClosePool() failed: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 400*time.Millisecond {
		t.Errorf("Close should have waited for the grace period, returned after %v", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Close must not wait past the grace period, returned after %v", elapsed)
	}

	// The pool rejects new work as soon as closing starts.
	if _, err := pool.Acquire(ctx); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed after close, got: %v", err)
	}

	conn.Release()
}

func TestPoolPing(t *testing.T) {
	pool := newTestPool(t, integrationConfig("default"))
	if err := pool.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
}

func TestPoolStats(t *testing.T) {
	pool := newTestPool(t, integrationConfig("default"))

	if _, err := pool.Execute(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	stats := pool.Stats()
	if stats.Alias != "default" {
		t.Errorf("Expected alias default, got %q", stats.Alias)
	}
	if stats.MaxConns != 5 {
		t.Errorf("Expected max conns 5, got %d", stats.MaxConns)
	}
	if stats.AcquireCount < 1 {
		t.Errorf("Expected at least one acquire, got %d", stats.AcquireCount)
	}
	if stats.ActiveLeases != 0 {
		t.Errorf("Expected no active leases at rest, got %d", stats.ActiveLeases)
	}
}

func BenchmarkPoolExecute(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping integration benchmark in short mode")
	}

	reg := NewRegistry()
	ctx := context.Background()
	if err := reg.Initialize(ctx, integrationConfig("default")); err != nil {
		b.Fatalf("Initialize() failed: %v", err)
	}
	defer func() { _ = reg.CloseAll(context.Background()) }()

	pool, err := reg.Pool("default")
	if err != nil {
		b.Fatalf("Pool() failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pool.Execute(ctx, "SELECT 1"); err != nil {
			b.Fatal(err)
		}
	}
}
