package postgres

import (
	"time"

	"github.com/Masterminds/squirrel"
)

// Row 一行查询结果，键为列名
type Row map[string]any

// Result 单条语句的执行结果
type Result struct {
	// RowsAffected 受影响的行数
	RowsAffected int64
	// Rows 查询返回的行，非查询语句为空
	Rows []Row
}

// BatchResult 批量执行中单条语句的结果
type BatchResult struct {
	// Index 语句在批量列表中的下标
	Index int
	// Result 该语句的执行结果
	Result *Result
}

// PoolStats 连接池统计信息
type PoolStats struct {
	// Alias 连接池别名
	Alias string
	// AcquireCount 累计获取连接次数
	AcquireCount int64
	// AcquireDuration 累计获取连接耗时
	AcquireDuration time.Duration
	// AcquiredConns 当前已被获取的连接数
	AcquiredConns int32
	// CanceledAcquireCount 累计取消获取连接次数
	CanceledAcquireCount int64
	// ConstructingConns 当前正在构建的连接数
	ConstructingConns int32
	// EmptyAcquireCount 累计因池空而等待的获取次数
	EmptyAcquireCount int64
	// IdleConns 当前空闲连接数
	IdleConns int32
	// MaxConns 最大连接数
	MaxConns int32
	// TotalConns 当前总连接数
	TotalConns int32
	// NewConnsCount 累计新建连接数
	NewConnsCount int64
	// MaxLifetimeDestroyCount 累计因超过存活时间被销毁的连接数
	MaxLifetimeDestroyCount int64
	// MaxIdleDestroyCount 累计因空闲超时被销毁的连接数
	MaxIdleDestroyCount int64
	// ActiveLeases 当前持有中的租约数
	ActiveLeases int64
	// QueuedWaiters 当前排队等待的调用方数量
	QueuedWaiters int64
}

// QueryBuilder PostgreSQL 占位符风格的语句构建器
var QueryBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
