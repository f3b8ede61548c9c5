// pkg/pool/bytebuff/pool_valyala.go
package bytebuff

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// ValyalaPool 包装 valyala/bytebufferpool 并附加取用统计
// ByteBuffer 直接暴露 []byte，适合绑定参数日志这类高频小块拼接
type ValyalaPool struct {
	pool bytebufferpool.Pool

	gets atomic.Uint64
	puts atomic.Uint64
}

var defaultValyalaPool = &ValyalaPool{}

// NewValyalaPool 创建 valyala 适配池
func NewValyalaPool() *ValyalaPool {
	return &ValyalaPool{}
}

// Get 取出一个 ByteBuffer
func (p *ValyalaPool) Get() *bytebufferpool.ByteBuffer {
	p.gets.Add(1)
	return p.pool.Get()
}

// Put 归还 ByteBuffer，valyala 内部会先清空再回收
func (p *ValyalaPool) Put(buf *bytebufferpool.ByteBuffer) {
	if buf == nil {
		return
	}
	p.puts.Add(1)
	p.pool.Put(buf)
}

// Stats 返回取用与归还次数
func (p *ValyalaPool) Stats() (gets, puts uint64) {
	return p.gets.Load(), p.puts.Load()
}

// GetValyala 从默认 valyala 池取 ByteBuffer
func GetValyala() *bytebufferpool.ByteBuffer {
	return defaultValyalaPool.Get()
}

// PutValyala 归还 ByteBuffer 到默认 valyala 池
func PutValyala(buf *bytebufferpool.ByteBuffer) {
	defaultValyalaPool.Put(buf)
}
