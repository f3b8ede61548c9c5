package postgres

import (
	"context"
	"errors"
	"fmt"
)

// QueryOne 查询单条记录并扫描到结构体，无结果返回 ErrNoRows
func QueryOne[T any](p *Pool, ctx context.Context, sql string, args ...any) (*T, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	p.logBoundSQL(sql, args)
	queryCtx, cancel := p.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := conn.conn.Query(queryCtx, sql, args...)
	if err != nil {
		return nil, &ExecutionError{Alias: p.alias, SQL: sql, Err: err}
	}
	defer rows.Close()

	result, err := scanOne[T](rows)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, err
		}
		return nil, &ExecutionError{Alias: p.alias, SQL: sql, Err: err}
	}
	return result, nil
}

// QueryAll 查询多条记录并扫描到结构体切片
func QueryAll[T any](p *Pool, ctx context.Context, sql string, args ...any) ([]*T, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	p.logBoundSQL(sql, args)
	queryCtx, cancel := p.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := conn.conn.Query(queryCtx, sql, args...)
	if err != nil {
		return nil, &ExecutionError{Alias: p.alias, SQL: sql, Err: err}
	}
	defer rows.Close()

	results, err := scanAll[T](rows)
	if err != nil {
		return nil, &ExecutionError{Alias: p.alias, SQL: sql, Err: err}
	}
	return results, nil
}

// Exists 判断查询是否至少返回一行
func (p *Pool) Exists(ctx context.Context, sql string, args ...any) (bool, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	query := fmt.Sprintf("SELECT EXISTS (%s)", sql)
	p.logBoundSQL(query, args)
	queryCtx, cancel := p.applyQueryTimeout(ctx)
	defer cancel()

	var exists bool
	if err := conn.conn.QueryRow(queryCtx, query, args...).Scan(&exists); err != nil {
		return false, &ExecutionError{Alias: p.alias, SQL: query, Err: err}
	}
	return exists, nil
}
