package postgres

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/semaphore"

	"github.com/lk2023060901/dbkit/pkg/logger"
)

// Pool 一个命名连接池。
// 并发租约数受 Pool.MaxConns 限制，超出部分最多允许 Queue.MaxWaiters
// 个调用方排队，排队超过 Queue.WaitTimeout 或队列已满时获取失败。
type Pool struct {
	alias    string
	cfg      *Config
	inner    *pgxpool.Pool
	gate     *semaphore.Weighted
	log      logger.Logger
	renderer BindRenderer
	bindLog  bool

	closed  atomic.Bool
	leases  atomic.Int64
	waiting atomic.Int64
}

// Conn 一个从池中租出的连接。
// 使用完毕必须调用 Release 归还，重复调用只有第一次生效。
type Conn struct {
	pool     *Pool
	conn     *pgxpool.Conn
	released atomic.Bool
}

// Raw 返回底层 pgx 连接
func (c *Conn) Raw() *pgxpool.Conn { return c.conn }

// Release 归还连接并释放排队许可
func (c *Conn) Release() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}
	if c.conn != nil {
		c.conn.Release()
	}
	c.pool.leases.Add(-1)
	c.pool.gate.Release(1)
}

// newPool 创建连接池并预热
func newPool(ctx context.Context, cfg *Config, log logger.Logger, renderer BindRenderer) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.BuildDSN())
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = cfg.Pool.MaxConns
	poolCfg.MinConns = cfg.Pool.MinConns
	poolCfg.MaxConnLifetime = cfg.Pool.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Pool.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.Pool.PingInterval
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	poolCfg.ConnConfig.DefaultQueryExecMode = cfg.queryExecMode()

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	inner, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := inner.Ping(connectCtx); err != nil {
		inner.Close()
		return nil, err
	}

	p := &Pool{
		alias:    cfg.Alias,
		cfg:      cfg,
		inner:    inner,
		gate:     semaphore.NewWeighted(int64(cfg.Pool.MaxConns) + int64(cfg.Queue.MaxWaiters)),
		log:      log,
		renderer: renderer,
		bindLog:  cfg.BindLogEnabled(),
	}
	p.warmUp(ctx)
	return p, nil
}

// warmUp 按 Increment 预先建立连接，失败只记录告警
func (p *Pool) warmUp(ctx context.Context) {
	n := p.cfg.Pool.Increment
	if n > p.cfg.Pool.MaxConns {
		n = p.cfg.Pool.MaxConns
	}
	if n <= 0 {
		return
	}
	conns := make([]*pgxpool.Conn, 0, n)
	for i := int32(0); i < n; i++ {
		conn, err := p.inner.Acquire(ctx)
		if err != nil {
			p.log.Warn("pool warm-up interrupted", "alias", p.alias, "wanted", n, "got", len(conns), "error", err)
			break
		}
		conns = append(conns, conn)
	}
	for _, conn := range conns {
		conn.Release()
	}
}

// Alias 返回连接池别名
func (p *Pool) Alias() string { return p.alias }

// Acquire 从池中租出一个连接。
// 池内连接耗尽时最多排队 Queue.WaitTimeout，队列已满立即失败。
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.closed.Load() {
		return nil, &ConnectionAcquisitionError{Alias: p.alias, Err: ErrPoolClosed}
	}
	if !p.gate.TryAcquire(1) {
		return nil, &ConnectionAcquisitionError{Alias: p.alias, Err: ErrQueueFull}
	}

	// 租约未满时空闲连接即时满足请求，不计入排队深度
	queued := p.saturated()
	if queued {
		p.waiting.Add(1)
	}
	acquireCtx := ctx
	cancel := func() {}
	if p.cfg.Queue.WaitTimeout > 0 {
		acquireCtx, cancel = context.WithTimeout(ctx, p.cfg.Queue.WaitTimeout)
	}
	conn, err := p.inner.Acquire(acquireCtx)
	cancel()
	if queued {
		p.waiting.Add(-1)
	}

	if err != nil {
		p.gate.Release(1)
		switch {
		case p.closed.Load():
			err = ErrPoolClosed
		case acquireCtx.Err() != nil && ctx.Err() == nil:
			err = ErrQueueTimeout
		}
		return nil, &ConnectionAcquisitionError{Alias: p.alias, Err: err}
	}

	p.leases.Add(1)
	return &Conn{pool: p, conn: conn}, nil
}

// saturated 判断在途租约是否已达上限，达到后新的获取必然排队
func (p *Pool) saturated() bool {
	return p.leases.Load() >= int64(p.cfg.Pool.MaxConns)
}

// Ping 检查数据库连通性
func (p *Pool) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	return p.inner.Ping(ctx)
}

// Stats 返回连接池统计信息
func (p *Pool) Stats() *PoolStats {
	stat := p.inner.Stat()
	return &PoolStats{
		Alias:                   p.alias,
		AcquireCount:            stat.AcquireCount(),
		AcquireDuration:         stat.AcquireDuration(),
		AcquiredConns:           stat.AcquiredConns(),
		CanceledAcquireCount:    stat.CanceledAcquireCount(),
		ConstructingConns:       stat.ConstructingConns(),
		EmptyAcquireCount:       stat.EmptyAcquireCount(),
		IdleConns:               stat.IdleConns(),
		MaxConns:                stat.MaxConns(),
		TotalConns:              stat.TotalConns(),
		NewConnsCount:           stat.NewConnsCount(),
		MaxLifetimeDestroyCount: stat.MaxLifetimeDestroyCount(),
		MaxIdleDestroyCount:     stat.MaxIdleDestroyCount(),
		ActiveLeases:            p.leases.Load(),
		QueuedWaiters:           p.waiting.Load(),
	}
}

// close 关闭连接池。
// 新的获取请求立即失败，在途租约最多等待 CloseGrace，
// 宽限期结束后剩余连接在后台归还时逐个销毁。
func (p *Pool) close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrPoolClosed
	}

	done := make(chan struct{})
	go func() {
		p.inner.Close()
		close(done)
	}()

	if p.cfg.CloseGrace <= 0 {
		return nil
	}

	timer := time.NewTimer(p.cfg.CloseGrace)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		p.log.Warn("pool close grace expired, remaining leases drain in background",
			"alias", p.alias, "grace", p.cfg.CloseGrace, "active_leases", p.leases.Load())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// applyQueryTimeout 应用语句级超时
func (p *Pool) applyQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, p.cfg.QueryTimeout)
	}
	return ctx, func() {}
}
