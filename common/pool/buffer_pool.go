// Package pool recycles the byte buffers that hold raw server replies.
package pool

import (
	"fmt"
	"sync"
)

// BufferPool is a construct for generating and reusing buffers of a
// given size. Useful for avoiding generating too many temporary
// buffers during runtime, which can anger the garbage collector.
type BufferPool struct {
	size int
	pool *sync.Pool
}

// NewBufferPool returns an initialized BufferPool for
// buffers of the supplied number of bytes.
func NewBufferPool(size int) *BufferPool {
	if size < 0 {
		panic("cannot create BufferPool of negative size")
	}
	bp := &BufferPool{
		size: size,
		pool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, size)
			},
		},
	}
	return bp
}

// Size returns the length of the buffers held by the pool.
func (bp *BufferPool) Size() int {
	return bp.size
}

// Get returns a new or recycled buffer from the pool.
func (bp *BufferPool) Get() []byte {
	return bp.pool.Get().([]byte)
}

// Put returns the supplied slice back to the buffer.
// Panics if the buffer is of improper size.
func (bp *BufferPool) Put(buffer []byte) {
	if len(buffer) != bp.size {
		panic(fmt.Sprintf(
			"attempting to return a byte buffer of size %v to a BufferPool of size %v",
			len(buffer), bp.size))
	}
	bp.pool.Put(buffer)
}

// GetSized returns a buffer of length n. Requests that fit the pool's size
// are served from the pool; larger ones are allocated and will be dropped
// by PutSized.
func (bp *BufferPool) GetSized(n int) []byte {
	if n < 0 {
		panic(fmt.Sprintf("cannot get a buffer of negative size %v", n))
	}
	if n > bp.size {
		return make([]byte, n)
	}
	return bp.Get()[:n]
}

// PutSized takes back a buffer handed out by GetSized.
func (bp *BufferPool) PutSized(buffer []byte) {
	if cap(buffer) != bp.size {
		return
	}
	bp.Put(buffer[:bp.size])
}
