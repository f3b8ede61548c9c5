package postgres

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lk2023060901/dbkit/pkg/pool/bytebuff"
)

// BindRenderer 将语句和绑定参数渲染为带内联值的文本，仅用于日志输出。
// 渲染结果不参与执行，实现必须不修改入参。
type BindRenderer interface {
	Render(sql string, args []any) string
}

// InlineRenderer 默认渲染器，把 $n 占位符替换为对应参数的字面量
type InlineRenderer struct{}

// Render 渲染语句。占位符越界或参数缺失时保留原始占位符。
func (InlineRenderer) Render(sql string, args []any) string {
	if len(args) == 0 {
		return sql
	}
	buf := bytebuff.GetValyala()
	defer bytebuff.PutValyala(buf)

	for i := 0; i < len(sql); {
		c := sql[i]
		if c != '$' {
			buf.WriteByte(c)
			i++
			continue
		}
		j := i + 1
		for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
			j++
		}
		if j == i+1 {
			buf.WriteByte(c)
			i++
			continue
		}
		idx, err := strconv.Atoi(sql[i+1 : j])
		if err != nil || idx < 1 || idx > len(args) {
			buf.WriteString(sql[i:j])
			i = j
			continue
		}
		buf.WriteString(renderLiteral(args[idx-1]))
		i = j
	}
	return buf.String()
}

// renderLiteral 将单个参数渲染为 SQL 字面量
func renderLiteral(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case []byte:
		return `'\x` + hex.EncodeToString(v) + "'"
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return "'" + v.Format(time.RFC3339Nano) + "'"
	case time.Duration:
		return "'" + v.String() + "'"
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		return "'" + strings.ReplaceAll(v.String(), "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", v), "'", "''") + "'"
	}
}

// logBoundSQL 在启用绑定日志的环境下输出带内联参数的语句。
// 渲染失败只影响日志，不影响语句执行。
func (p *Pool) logBoundSQL(sql string, args []any) {
	if !p.bindLog {
		return
	}
	p.log.Debug("bound statement", "alias", p.alias, "sql", p.renderer.Render(sql, args))
}
