package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkPoolGetPut(t *testing.T) {
	cp := NewChunkPool(1024)
	assert.Equal(t, 1024, cp.Size())

	buf := cp.Get()
	assert.Len(t, buf, 1024)

	// A short slice of a pooled buffer comes back at full length.
	cp.Put(buf[:10])
	again := cp.Get()
	assert.Len(t, again, 1024)
}

func TestChunkPoolDropsForeignBuffers(t *testing.T) {
	cp := NewChunkPool(16)
	cp.Put(make([]byte, 8))
	assert.Len(t, cp.Get(), 16)
}

func TestForSize(t *testing.T) {
	a := ForSize(2048)
	b := ForSize(2048)
	c := ForSize(4096)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 4096, c.Size())
}
