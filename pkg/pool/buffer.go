// Package pool holds reusable I/O buffers so repeated copies into an archive
// writer do not allocate a fresh slice per entry.
package pool

import "sync"

// FixedBufferPool hands out byte slices of a single size.
type FixedBufferPool struct {
	size int64
	pool sync.Pool
}

// NewFixedBuffer creates a pool of buffers of exactly size bytes.
// A non-positive size falls back to 32KB, the io.Copy default.
func NewFixedBuffer(size int64) *FixedBufferPool {
	if size <= 0 {
		size = 32 * 1024
	}
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

// Size returns the length of the buffers handed out by Get.
func (fp *FixedBufferPool) Size() int64 {
	return fp.size
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
