package pool

import (
	"sync"
)

// ChunkPool manages reusable buffers of one fixed chunk size.
type ChunkPool struct {
	size int
	pool *sync.Pool
}

// NewChunkPool creates a new pool handing out buffers of the given size.
func NewChunkPool(size int) *ChunkPool {
	return &ChunkPool{
		size: size,
		pool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
	}
}

// Size returns the length of the buffers handed out by the pool.
func (cp *ChunkPool) Size() int {
	return cp.size
}

// Get returns a buffer of exactly Size bytes.
// The caller is responsible for calling Put to return the buffer to the pool.
func (cp *ChunkPool) Get() []byte {
	bufPtr := cp.pool.Get().(*[]byte)
	// Restore full length in case a short chunk was returned
	return (*bufPtr)[:cp.size]
}

// Put returns a buffer to the pool.
// Buffers of a different capacity are dropped.
// The buffer should not be used after calling Put.
func (cp *ChunkPool) Put(buf []byte) {
	if cap(buf) != cp.size {
		return
	}
	buf = buf[:cp.size]
	cp.pool.Put(&buf)
}

// Global pools keyed by chunk size for use throughout the module.
var chunkPools sync.Map

// ForSize returns the shared pool for the given chunk size.
func ForSize(size int) *ChunkPool {
	if p, ok := chunkPools.Load(size); ok {
		return p.(*ChunkPool)
	}
	p, _ := chunkPools.LoadOrStore(size, NewChunkPool(size))
	return p.(*ChunkPool)
}
