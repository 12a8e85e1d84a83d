package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedBufferPool(t *testing.T) {
	fp := NewFixedBuffer(4096)

	b := fp.Get()
	assert.Len(t, *b, 4096)

	// Shrink the slice, return it, and make sure the next Get has the
	// full length restored.
	*b = (*b)[:10]
	fp.Put(b)

	b2 := fp.Get()
	assert.Len(t, *b2, 4096)
}

func TestFixedBufferPoolRejectsForeignBuffers(t *testing.T) {
	fp := NewFixedBuffer(1024)

	foreign := make([]byte, 512)
	fp.Put(&foreign) // wrong capacity, must be dropped
	fp.Put(nil)

	b := fp.Get()
	assert.Len(t, *b, 1024)
}
