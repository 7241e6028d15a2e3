package pool

import (
	"testing"
)

func TestFixedBufferPool(t *testing.T) {
	size := int64(1024)
	fp := NewFixedBuffer(size)

	if fp.Size() != size {
		t.Errorf("got size %d, want %d", fp.Size(), size)
	}

	ptr := fp.Get()
	if len(*ptr) != int(size) {
		t.Errorf("got len %d, want %d", len(*ptr), size)
	}
	if cap(*ptr) != int(size) {
		t.Errorf("got cap %d, want %d", cap(*ptr), size)
	}

	// A shortened slice must come back at full length.
	*ptr = (*ptr)[:10]
	fp.Put(ptr)
	again := fp.Get()
	if len(*again) != int(size) {
		t.Errorf("after Put, got len %d, want %d", len(*again), size)
	}

	// Put invalid size (should be ignored)
	small := make([]byte, 10)
	fp.Put(&small)

	// Put nil
	fp.Put(nil)
}

func TestNewFixedBuffer_DefaultSize(t *testing.T) {
	fp := NewFixedBuffer(0)
	if fp.Size() != 32*1024 {
		t.Errorf("expected default size of 32KB, got %d", fp.Size())
	}
	if got := len(*fp.Get()); got != 32*1024 {
		t.Errorf("expected buffer of 32KB, got %d", got)
	}
}
