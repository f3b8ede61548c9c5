package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lk2023060901/dbkit/pkg/logger"
)

// Registry 命名连接池注册表。
// 多个 Registry 互不影响，各自管理自己的池集合。
type Registry struct {
	mu       sync.RWMutex
	pools    map[string]*Pool
	log      logger.Logger
	renderer BindRenderer
}

// Option 注册表选项
type Option func(*Registry)

// WithLogger 指定日志器，默认不输出任何日志
func WithLogger(log logger.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithBindRenderer 指定绑定参数渲染器，默认内联渲染
func WithBindRenderer(renderer BindRenderer) Option {
	return func(r *Registry) {
		if renderer != nil {
			r.renderer = renderer
		}
	}
}

// NewRegistry 创建连接池注册表
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pools:    make(map[string]*Pool),
		log:      logger.NewNoop(),
		renderer: InlineRenderer{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Initialize 按配置创建连接池并注册。
// 别名重复、配置无效或数据库拒绝连接时返回 PoolCreationError，
// 注册表保持原状。
func (r *Registry) Initialize(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		return &PoolCreationError{Err: ErrNilConfig}
	}

	merged, err := MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return &PoolCreationError{Alias: cfg.Alias, Err: err}
	}
	if err := merged.Validate(); err != nil {
		return &PoolCreationError{Alias: merged.Alias, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pools[merged.Alias]; ok {
		return &PoolCreationError{Alias: merged.Alias, Err: ErrDuplicateAlias}
	}

	pool, err := newPool(ctx, merged, r.log, r.renderer)
	if err != nil {
		r.log.Error("pool initialization failed", "alias", merged.Alias, "error", err)
		return &PoolCreationError{Alias: merged.Alias, Err: err}
	}

	r.pools[merged.Alias] = pool
	r.log.Info("pool initialized",
		"alias", merged.Alias,
		"host", merged.DB.Host,
		"dbname", merged.DB.DBName,
		"min_conns", merged.Pool.MinConns,
		"max_conns", merged.Pool.MaxConns,
		"max_waiters", merged.Queue.MaxWaiters)
	return nil
}

// Pool 按别名查找连接池，空别名视为 default
func (r *Registry) Pool(alias string) (*Pool, error) {
	if alias == "" {
		alias = DefaultAlias
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.pools[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPoolNotFound, alias)
	}
	return pool, nil
}

// Aliases 返回已注册的连接池别名，按字典序排列
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	aliases := make([]string, 0, len(r.pools))
	for alias := range r.pools {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Acquire 从指定连接池租出一个连接
func (r *Registry) Acquire(ctx context.Context, alias string) (*Conn, error) {
	pool, err := r.Pool(alias)
	if err != nil {
		if alias == "" {
			alias = DefaultAlias
		}
		return nil, &ConnectionAcquisitionError{Alias: alias, Err: err}
	}
	return pool.Acquire(ctx)
}

// Close 关闭 default 连接池
func (r *Registry) Close(ctx context.Context) error {
	return r.ClosePool(ctx, DefaultAlias)
}

// ClosePool 关闭指定连接池并从注册表移除。
// 连接池不存在或已关闭时返回 PoolCloseError。
func (r *Registry) ClosePool(ctx context.Context, alias string) error {
	if alias == "" {
		alias = DefaultAlias
	}

	r.mu.Lock()
	pool, ok := r.pools[alias]
	if ok {
		delete(r.pools, alias)
	}
	r.mu.Unlock()

	if !ok {
		return &PoolCloseError{Alias: alias, Err: ErrPoolNotFound}
	}

	if err := pool.close(ctx); err != nil {
		r.log.Error("pool close failed", "alias", alias, "error", err)
		return &PoolCloseError{Alias: alias, Err: err}
	}
	r.log.Info("pool closed", "alias", alias)
	return nil
}

// CloseAll 关闭全部连接池，逐个收集错误
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	pools := make([]*Pool, 0, len(r.pools))
	for _, pool := range r.pools {
		pools = append(pools, pool)
	}
	r.pools = make(map[string]*Pool)
	r.mu.Unlock()

	var errs []error
	for _, pool := range pools {
		if err := pool.close(ctx); err != nil {
			r.log.Error("pool close failed", "alias", pool.alias, "error", err)
			errs = append(errs, &PoolCloseError{Alias: pool.alias, Err: err})
			continue
		}
		r.log.Info("pool closed", "alias", pool.alias)
	}
	return errors.Join(errs...)
}

// defaultPool 查找 default 连接池，供透传方法使用
func (r *Registry) defaultPool() (*Pool, error) {
	pool, err := r.Pool(DefaultAlias)
	if err != nil {
		return nil, &ConnectionAcquisitionError{Alias: DefaultAlias, Err: err}
	}
	return pool, nil
}

// Execute 在 default 连接池上执行自动提交语句
func (r *Registry) Execute(ctx context.Context, sql string, args ...any) (*Result, error) {
	pool, err := r.defaultPool()
	if err != nil {
		return nil, err
	}
	return pool.Execute(ctx, sql, args...)
}

// ExecuteBatch 在 default 连接池上执行批量事务
func (r *Registry) ExecuteBatch(ctx context.Context, stmts []Statement) ([]BatchResult, error) {
	pool, err := r.defaultPool()
	if err != nil {
		return nil, err
	}
	return pool.ExecuteBatch(ctx, stmts)
}

// Begin 在 default 连接池上启动手动事务会话
func (r *Registry) Begin(ctx context.Context) (*Session, error) {
	pool, err := r.defaultPool()
	if err != nil {
		return nil, err
	}
	return pool.Begin(ctx)
}

// Stats 返回指定连接池的统计信息
func (r *Registry) Stats(alias string) (*PoolStats, error) {
	pool, err := r.Pool(alias)
	if err != nil {
		return nil, err
	}
	return pool.Stats(), nil
}

// StatsAll 返回全部连接池的统计信息，按别名排序
func (r *Registry) StatsAll() []*PoolStats {
	r.mu.RLock()
	pools := make([]*Pool, 0, len(r.pools))
	for _, pool := range r.pools {
		pools = append(pools, pool)
	}
	r.mu.RUnlock()

	stats := make([]*PoolStats, 0, len(pools))
	for _, pool := range pools {
		stats = append(stats, pool.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Alias < stats[j].Alias })
	return stats
}
