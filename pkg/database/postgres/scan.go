package postgres

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
)

// 字段映射缓存
var (
	structCache   = make(map[reflect.Type]*structInfo)
	structCacheMu sync.RWMutex
)

// structInfo 结构体到列的映射信息
type structInfo struct {
	fields []fieldInfo
}

// fieldInfo 单个字段的映射信息
type fieldInfo struct {
	column string // 数据库列名
	index  int    // 结构体字段下标
}

// getStructInfo 获取结构体映射信息（带缓存）
func getStructInfo(t reflect.Type) *structInfo {
	structCacheMu.RLock()
	info, ok := structCache[t]
	structCacheMu.RUnlock()
	if ok {
		return info
	}

	structCacheMu.Lock()
	defer structCacheMu.Unlock()

	// 双重检查
	if info, ok := structCache[t]; ok {
		return info
	}

	info = &structInfo{
		fields: make([]fieldInfo, 0, t.NumField()),
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		column := field.Tag.Get("db")
		if column == "-" {
			continue
		}
		if column == "" {
			column = toSnakeCase(field.Name)
		}

		info.fields = append(info.fields, fieldInfo{
			column: column,
			index:  i,
		})
	}

	structCache[t] = info
	return info
}

// scanOne 扫描单条记录到结构体
func scanOne[T any](rows pgx.Rows) (*T, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoRows
	}

	var result T
	if err := scanStruct(rows, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// scanAll 扫描多条记录到结构体切片
func scanAll[T any](rows pgx.Rows) ([]*T, error) {
	results := make([]*T, 0)
	for rows.Next() {
		var item T
		if err := scanStruct(rows, &item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// scanStruct 扫描当前行到结构体。
// 列按 db tag 匹配，无 tag 时按字段名的蛇形转换匹配，
// 结果集中没有对应字段的列被丢弃。
func scanStruct(rows pgx.Rows, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("postgres: scan dest must be a non-nil pointer")
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("postgres: scan dest must be a pointer to struct")
	}

	info := getStructInfo(v.Type())

	fields := rows.FieldDescriptions()
	values := make([]any, len(fields))
	columnMap := make(map[string]int, len(fields))
	for i, fd := range fields {
		columnMap[string(fd.Name)] = i
	}

	for _, field := range info.fields {
		if colIdx, ok := columnMap[field.column]; ok {
			values[colIdx] = v.Field(field.index).Addr().Interface()
		}
	}

	// 没有映射到字段的列用占位符吞掉
	for i := range values {
		if values[i] == nil {
			var placeholder any
			values[i] = &placeholder
		}
	}

	return rows.Scan(values...)
}

// scanRowsToSlice 扫描所有行到切片，dest 必须为 *[]*T
func scanRowsToSlice(rows pgx.Rows, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("postgres: scan dest must be a non-nil pointer")
	}

	v = v.Elem()
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("postgres: scan dest must be a pointer to slice")
	}

	elemType := v.Type().Elem()
	if elemType.Kind() != reflect.Ptr || elemType.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("postgres: slice element must be a struct pointer")
	}
	structType := elemType.Elem()

	for rows.Next() {
		item := reflect.New(structType)
		if err := scanStruct(rows, item.Interface()); err != nil {
			return err
		}
		v.Set(reflect.Append(v, item))
	}
	return rows.Err()
}

// toSnakeCase 将驼峰命名转换为蛇形命名，连续大写视为一个词
func toSnakeCase(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		if r >= 'A' && r <= 'Z' {
			prevLower := i > 0 && !(rs[i-1] >= 'A' && rs[i-1] <= 'Z')
			nextLower := i+1 < len(rs) && rs[i+1] >= 'a' && rs[i+1] <= 'z'
			if i > 0 && (prevLower || nextLower) {
				b.WriteRune('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
