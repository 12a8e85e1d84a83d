// Package pool provides reusable byte-slice pools for file I/O.
package pool

import "sync"

// FixedBufferPool hands out byte slices of a single fixed size. The
// synchronizer performs one comparison or copy at a time, so a single
// bucket is enough; pooling still avoids reallocating the buffer for
// every file touched during a pass.
type FixedBufferPool struct {
	size int64
	pool sync.Pool
}

func NewFixedBuffer(size int64) *FixedBufferPool {
	return &FixedBufferPool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, int(size))
				return &b
			},
		},
	}
}

func (fp *FixedBufferPool) Get() *[]byte {
	return fp.pool.Get().(*[]byte)
}

func (fp *FixedBufferPool) Put(b *[]byte) {
	// Only put it back if it's the right size.
	if b == nil || int64(cap(*b)) != fp.size {
		return
	}
	*b = (*b)[:fp.size]
	fp.pool.Put(b)
}
