package config

import (
	"fmt"
	"reflect"
)

// MergeConfig 把 src 的非零字段叠加到 dst 上并返回 dst
// 各 pkg 的 New(cfg) 用它把用户只填了一部分的配置补全成完整配置:
// DefaultConfig 做 dst，用户配置做 src，零值字段保持默认
// 任意一方为 nil 时直接返回另一方
func MergeConfig[T any](dst, src *T) (*T, error) {
	switch {
	case dst == nil && src == nil:
		return nil, fmt.Errorf("%w: nothing to merge", ErrMergeFailed)
	case dst == nil:
		return src, nil
	case src == nil:
		return dst, nil
	}

	overlay(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
	return dst, nil
}

// overlay 递归地把 src 的非零部分写入 dst，dst 与 src 类型一致
func overlay(dst, src reflect.Value) {
	switch dst.Kind() {
	case reflect.Struct:
		for i := 0; i < dst.NumField(); i++ {
			if f := dst.Field(i); f.CanSet() {
				overlay(f, src.Field(i))
			}
		}

	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		overlay(dst.Elem(), src.Elem())

	case reflect.Map:
		// map 按 key 覆盖，不做元素级合并
		if src.Len() == 0 {
			return
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMap(dst.Type()))
		}
		it := src.MapRange()
		for it.Next() {
			dst.SetMapIndex(it.Key(), it.Value())
		}

	case reflect.Slice:
		// 切片整体覆盖
		if src.Len() > 0 {
			dst.Set(src)
		}

	default:
		if !src.IsZero() {
			dst.Set(src)
		}
	}
}
