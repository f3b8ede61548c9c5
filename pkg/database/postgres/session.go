package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionState 会话状态
type SessionState int32

const (
	// SessionActive 事务进行中，可继续执行语句
	SessionActive SessionState = iota
	// SessionCommitted 已提交，会话结束
	SessionCommitted
	// SessionRolledBack 已显式回滚，会话结束
	SessionRolledBack
	// SessionAborted 因语句失败被自动回滚，会话结束
	SessionAborted
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionCommitted:
		return "committed"
	case SessionRolledBack:
		return "rolled back"
	case SessionAborted:
		return "aborted"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// TxIsoLevel 事务隔离级别
type TxIsoLevel string

const (
	TxIsoLevelDefault         TxIsoLevel = ""
	TxIsoLevelReadUncommitted TxIsoLevel = "read uncommitted"
	TxIsoLevelReadCommitted   TxIsoLevel = "read committed"
	TxIsoLevelRepeatableRead  TxIsoLevel = "repeatable read"
	TxIsoLevelSerializable    TxIsoLevel = "serializable"
)

// TxAccessMode 事务访问模式
type TxAccessMode string

const (
	TxAccessModeDefault   TxAccessMode = ""
	TxAccessModeReadWrite TxAccessMode = "read write"
	TxAccessModeReadOnly  TxAccessMode = "read only"
)

// TxOptions 事务选项
type TxOptions struct {
	IsoLevel   TxIsoLevel
	AccessMode TxAccessMode
}

func (o TxOptions) pgxOptions() pgx.TxOptions {
	return pgx.TxOptions{
		IsoLevel:   pgx.TxIsoLevel(o.IsoLevel),
		AccessMode: pgx.TxAccessMode(o.AccessMode),
	}
}

// Session 一个手动事务会话。
// 会话独占一个连接，直到提交、回滚或语句失败触发自动回滚，
// 三种结束方式都会归还连接。结束后的会话拒绝一切调用。
// 同一会话内的语句串行执行，Session 可安全地被多个 goroutine 使用。
type Session struct {
	id    string
	alias string
	pool  *Pool
	conn  *Conn
	tx    pgx.Tx

	mu    sync.Mutex
	state atomic.Int32
}

// Begin 启动一个手动事务会话
func (p *Pool) Begin(ctx context.Context) (*Session, error) {
	return p.BeginWithOptions(ctx, TxOptions{})
}

// BeginWithOptions 以指定隔离级别和访问模式启动会话
func (p *Pool) BeginWithOptions(ctx context.Context, opts TxOptions) (*Session, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := conn.conn.BeginTx(ctx, opts.pgxOptions())
	if err != nil {
		conn.Release()
		return nil, &ConnectionAcquisitionError{Alias: p.alias, Err: err}
	}

	s := &Session{
		id:    uuid.New().String(),
		alias: p.alias,
		pool:  p,
		conn:  conn,
		tx:    tx,
	}
	p.log.Debug("session started", "alias", p.alias, "session_id", s.id)
	return s, nil
}

// ID 返回会话标识
func (s *Session) ID() string { return s.id }

// Alias 返回会话所属连接池别名
func (s *Session) Alias() string { return s.alias }

// State 返回会话当前状态
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Exec 在会话事务内执行一条语句。
// 语句失败时会话自动回滚并归还连接，之后的调用都会被拒绝。
func (s *Session) Exec(ctx context.Context, sql string, args ...any) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureActive(); err != nil {
		return nil, err
	}

	s.pool.logBoundSQL(sql, args)
	queryCtx, cancel := s.pool.applyQueryTimeout(ctx)
	defer cancel()

	res, err := runStatement(queryCtx, s.tx, sql, args)
	if err != nil {
		s.abortLocked("statement failed", err)
		return nil, &TransactionError{Alias: s.alias, Index: -1, Err: err}
	}
	return res, nil
}

// QueryOne 在会话事务内查询单行并扫描到结构体。
// 无结果返回 ErrNoRows，不影响会话状态；驱动错误触发自动回滚。
func (s *Session) QueryOne(ctx context.Context, dest any, sql string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureActive(); err != nil {
		return err
	}

	s.pool.logBoundSQL(sql, args)
	queryCtx, cancel := s.pool.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := s.tx.Query(queryCtx, sql, args...)
	if err != nil {
		s.abortLocked("query failed", err)
		return &TransactionError{Alias: s.alias, Index: -1, Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			s.abortLocked("query failed", err)
			return &TransactionError{Alias: s.alias, Index: -1, Err: err}
		}
		return ErrNoRows
	}
	if err := scanStruct(rows, dest); err != nil {
		return err
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		s.abortLocked("query failed", err)
		return &TransactionError{Alias: s.alias, Index: -1, Err: err}
	}
	return nil
}

// QueryAll 在会话事务内查询多行并扫描到切片，dest 必须为 *[]*T
func (s *Session) QueryAll(ctx context.Context, dest any, sql string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureActive(); err != nil {
		return err
	}

	s.pool.logBoundSQL(sql, args)
	queryCtx, cancel := s.pool.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := s.tx.Query(queryCtx, sql, args...)
	if err != nil {
		s.abortLocked("query failed", err)
		return &TransactionError{Alias: s.alias, Index: -1, Err: err}
	}
	defer rows.Close()

	if err := scanRowsToSlice(rows, dest); err != nil {
		if rows.Err() != nil {
			s.abortLocked("query failed", rows.Err())
			return &TransactionError{Alias: s.alias, Index: -1, Err: rows.Err()}
		}
		return err
	}
	return nil
}

// Commit 提交会话事务并归还连接。
// 提交失败时执行回滚，会话转入 aborted 状态。
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureActive(); err != nil {
		return err
	}

	queryCtx, cancel := s.pool.applyQueryTimeout(ctx)
	defer cancel()

	if err := s.tx.Commit(queryCtx); err != nil {
		s.abortLocked("commit failed", err)
		return &TransactionError{Alias: s.alias, Index: -1, Err: err}
	}
	s.finishLocked(SessionCommitted)
	s.pool.log.Debug("session committed", "alias", s.alias, "session_id", s.id)
	return nil
}

// Rollback 回滚会话事务并归还连接。
// 无论驱动回滚是否出错，会话都进入 rolled back 状态。
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureActive(); err != nil {
		return err
	}

	queryCtx, cancel := s.pool.applyQueryTimeout(ctx)
	defer cancel()

	err := s.tx.Rollback(queryCtx)
	s.finishLocked(SessionRolledBack)
	s.pool.log.Debug("session rolled back", "alias", s.alias, "session_id", s.id)
	if err != nil {
		return &TransactionError{Alias: s.alias, Index: -1, Err: err}
	}
	return nil
}

// ensureActive 拒绝已结束会话上的调用，不触达驱动
func (s *Session) ensureActive() error {
	if st := s.State(); st != SessionActive {
		return fmt.Errorf("%w: session %s is %s", ErrSessionNotActive, s.id, st)
	}
	return nil
}

// abortLocked 自动回滚并归还连接，调用方必须持有 s.mu
func (s *Session) abortLocked(reason string, cause error) {
	rollbackTx(s.tx)
	s.finishLocked(SessionAborted)
	s.pool.log.Warn("session aborted", "alias", s.alias, "session_id", s.id,
		"reason", reason, "error", cause)
}

// finishLocked 归还连接并落入终态，调用方必须持有 s.mu
func (s *Session) finishLocked(state SessionState) {
	s.conn.Release()
	s.state.Store(int32(state))
}
