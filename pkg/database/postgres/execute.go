package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// querier 可执行查询的对象，连接和事务都满足
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Execute 在自动提交模式下执行单条语句。
// 每次调用独立租用一个连接，无论成功失败都在返回前归还。
func (p *Pool) Execute(ctx context.Context, sql string, args ...any) (*Result, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	p.logBoundSQL(sql, args)
	queryCtx, cancel := p.applyQueryTimeout(ctx)
	defer cancel()

	res, err := runStatement(queryCtx, conn.conn, sql, args)
	if err != nil {
		return nil, &ExecutionError{Alias: p.alias, SQL: sql, Err: err}
	}
	return res, nil
}

// runStatement 执行单条语句并收集结果
func runStatement(ctx context.Context, q querier, sql string, args []any) (*Result, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows)
}

// collectRows 读取全部行，非查询语句只返回受影响行数
func collectRows(rows pgx.Rows) (*Result, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Result{
		RowsAffected: rows.CommandTag().RowsAffected(),
		Rows:         out,
	}, nil
}
