package memfile

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/outofforest/clist"
)

// Allocator provides memory for blocks.
type Allocator interface {
	// Alloc returns n bytes. Failure must wrap clist.ErrOutOfMemory.
	Alloc(n int) ([]byte, error)

	// Free returns memory obtained from Alloc.
	Free(b []byte)
}

var _ Allocator = &HeapAllocator{}

// HeapAllocator allocates blocks on the heap, optionally within a limit.
type HeapAllocator struct {
	limit   int64
	used    atomic.Int64
	failing atomic.Bool
}

// NewHeapAllocator creates heap allocator. Zero limit means no limit.
func NewHeapAllocator(limit int64) *HeapAllocator {
	return &HeapAllocator{limit: limit}
}

// Alloc allocates n bytes.
func (a *HeapAllocator) Alloc(n int) ([]byte, error) {
	if a.failing.Load() {
		return nil, errors.Wrapf(clist.ErrOutOfMemory, "allocation of %d bytes rejected", n)
	}
	if used := a.used.Add(int64(n)); a.limit > 0 && used > a.limit {
		a.used.Add(-int64(n))
		return nil, errors.Wrapf(clist.ErrOutOfMemory, "allocation of %d bytes exceeds limit of %d bytes",
			n, a.limit)
	}
	return make([]byte, n), nil
}

// Free releases memory.
func (a *HeapAllocator) Free(b []byte) {
	a.used.Add(-int64(cap(b)))
}

// SetFailing makes all subsequent allocations fail, or succeed again.
func (a *HeapAllocator) SetFailing(failing bool) {
	a.failing.Store(failing)
}

// Used returns the number of allocated bytes.
func (a *HeapAllocator) Used() int64 {
	return a.used.Load()
}
