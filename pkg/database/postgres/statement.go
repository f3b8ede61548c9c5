package postgres

import (
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Statement 一条待执行的语句及其绑定参数
type Statement struct {
	SQL  string
	Args []any
}

// NewStatement 构造语句
func NewStatement(sql string, args ...any) Statement {
	return Statement{SQL: sql, Args: args}
}

// StatementOf 从 squirrel 构建器生成语句
func StatementOf(b squirrel.Sqlizer) (Statement, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return Statement{}, fmt.Errorf("postgres: build statement: %w", err)
	}
	return Statement{SQL: sql, Args: args}, nil
}
