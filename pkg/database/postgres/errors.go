package postgres

import (
	"errors"
	"fmt"
)

// 哨兵错误
var (
	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("postgres: config is nil")
	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("postgres: invalid config")
	// ErrDuplicateAlias 连接池别名已注册
	ErrDuplicateAlias = errors.New("postgres: pool alias already registered")
	// ErrPoolNotFound 连接池不存在
	ErrPoolNotFound = errors.New("postgres: pool not found")
	// ErrPoolClosed 连接池已关闭
	ErrPoolClosed = errors.New("postgres: pool is closed")
	// ErrQueueFull 等待队列已满
	ErrQueueFull = errors.New("postgres: acquire queue is full")
	// ErrQueueTimeout 排队等待连接超时
	ErrQueueTimeout = errors.New("postgres: acquire queue wait timed out")
	// ErrSessionNotActive 会话已结束
	ErrSessionNotActive = errors.New("postgres: session is not active")
	// ErrNoRows 查询结果为空
	ErrNoRows = errors.New("postgres: no rows in result set")
)

// PoolCreationError 连接池创建失败
type PoolCreationError struct {
	Alias string
	Err   error
}

func (e *PoolCreationError) Error() string {
	return fmt.Sprintf("postgres: create pool %q: %v", e.Alias, e.Err)
}

func (e *PoolCreationError) Unwrap() error { return e.Err }

// PoolCloseError 连接池关闭失败
type PoolCloseError struct {
	Alias string
	Err   error
}

func (e *PoolCloseError) Error() string {
	return fmt.Sprintf("postgres: close pool %q: %v", e.Alias, e.Err)
}

func (e *PoolCloseError) Unwrap() error { return e.Err }

// ConnectionAcquisitionError 获取连接失败，包括队列溢出和排队超时
type ConnectionAcquisitionError struct {
	Alias string
	Err   error
}

func (e *ConnectionAcquisitionError) Error() string {
	return fmt.Sprintf("postgres: acquire connection from pool %q: %v", e.Alias, e.Err)
}

func (e *ConnectionAcquisitionError) Unwrap() error { return e.Err }

// ExecutionError 自动提交语句执行失败，连接已归还
type ExecutionError struct {
	Alias string
	SQL   string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("postgres: execute on pool %q: %v", e.Alias, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TransactionError 事务内语句或提交失败。
// 调用方看到该错误时回滚已经完成，连接已归还。
// Index 为批量执行中失败语句的下标，非批量场景为 -1。
type TransactionError struct {
	Alias string
	Index int
	Err   error
}

func (e *TransactionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("postgres: transaction on pool %q failed at statement %d: %v", e.Alias, e.Index, e.Err)
	}
	return fmt.Sprintf("postgres: transaction on pool %q: %v", e.Alias, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
