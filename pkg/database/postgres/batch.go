package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// rollbackTimeout 自动回滚的独立超时，不受调用方 context 影响
const rollbackTimeout = 5 * time.Second

// ExecuteBatch 在单个事务中按列表顺序执行多条语句。
// 全部成功时一次性提交并返回与列表同序的结果；任何一条失败时
// 立即回滚，后续语句不再执行，返回的 TransactionError 标记失败下标。
// 无论成功失败，所用连接都在返回前归还。
func (p *Pool) ExecuteBatch(ctx context.Context, stmts []Statement) ([]BatchResult, error) {
	if len(stmts) == 0 {
		return []BatchResult{}, nil
	}

	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	queryCtx, cancel := p.applyQueryTimeout(ctx)
	defer cancel()

	tx, err := conn.conn.Begin(queryCtx)
	if err != nil {
		return nil, &TransactionError{Alias: p.alias, Index: -1, Err: err}
	}

	results := make([]BatchResult, 0, len(stmts))
	for i, stmt := range stmts {
		p.logBoundSQL(stmt.SQL, stmt.Args)
		res, err := runStatement(queryCtx, tx, stmt.SQL, stmt.Args)
		if err != nil {
			rollbackTx(tx)
			return nil, &TransactionError{Alias: p.alias, Index: i, Err: err}
		}
		results = append(results, BatchResult{Index: i, Result: res})
	}

	if err := tx.Commit(queryCtx); err != nil {
		rollbackTx(tx)
		return nil, &TransactionError{Alias: p.alias, Index: -1, Err: err}
	}
	return results, nil
}

// rollbackTx 用独立 context 回滚，调用方 context 可能已经结束
func rollbackTx(tx pgx.Tx) {
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()
	_ = tx.Rollback(ctx)
}
