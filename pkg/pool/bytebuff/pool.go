// pkg/pool/bytebuff/pool.go
package bytebuff

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// 分级容量: 128B、1KB、8KB、64KB、512KB，相邻两级相差 8 倍
// SQL 文本与渲染结果大多落在前三级
const (
	minCap    = 128
	tierShift = 3
	tierCount = 5
	// maxCap 最高分级的容量，超过它的 buffer 不回池
	maxCap = minCap << (tierShift * (tierCount - 1))
)

// tierCap 第 i 级的容量
func tierCap(i int) int { return minCap << (tierShift * i) }

// tierFor 返回能容纳 n 字节的最小分级
func tierFor(n int) int {
	for i, c := 0, minCap; i < tierCount-1; i, c = i+1, c<<tierShift {
		if n <= c {
			return i
		}
	}
	return tierCount - 1
}

// tierFloor 返回容量不超过 c 的最高分级
func tierFloor(c int) int {
	for i := tierCount - 1; i > 0; i-- {
		if tierCap(i) <= c {
			return i
		}
	}
	return 0
}

// Pool 分级的 bytes.Buffer 池
// 按容量提示取用对应级别，小请求不会占住大 buffer
type Pool struct {
	tiers [tierCount]sync.Pool

	gets   atomic.Uint64
	puts   atomic.Uint64
	misses atomic.Uint64
}

var defaultPool = NewPool()

// NewPool 创建分级 buffer 池，每级的新 buffer 预先扩到本级容量
func NewPool() *Pool {
	p := &Pool{}
	for i := range p.tiers {
		capacity := tierCap(i)
		p.tiers[i].New = func() any {
			buf := &bytes.Buffer{}
			buf.Grow(capacity)
			return buf
		}
	}
	return p
}

// Get 取出一个容量不小于 hint 的空 Buffer
func (p *Pool) Get(hint int) *bytes.Buffer {
	p.gets.Add(1)

	buf := p.tiers[tierFor(hint)].Get().(*bytes.Buffer)
	if buf.Cap() < hint {
		// 只有 hint 超过最高分级容量时才会走到。
		// buffer 此时为空，Grow(hint) 保证总容量不小于 hint
		p.misses.Add(1)
		buf.Grow(hint)
	}
	return buf
}

// Put 清空并归还 Buffer，放入容量不超过其自身的最高分级
// 超过最高分级容量的交给 GC
func (p *Pool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxCap {
		return
	}

	p.puts.Add(1)
	buf.Reset()
	p.tiers[tierFloor(buf.Cap())].Put(buf)
}

// Stats 返回取用、归还与容量未命中的次数
func (p *Pool) Stats() (gets, puts, misses uint64) {
	return p.gets.Load(), p.puts.Load(), p.misses.Load()
}

// Get 从默认池取 Buffer
func Get(hint int) *bytes.Buffer { return defaultPool.Get(hint) }

// Put 归还 Buffer 到默认池
func Put(buf *bytes.Buffer) { defaultPool.Put(buf) }

// Stats 返回默认池的统计
func Stats() (gets, puts, misses uint64) { return defaultPool.Stats() }
