// Package pools provides tiered byte-slice pooling for the read loops.
package pools

import "sync"

// BytePool is a multi-tiered byte slice pool for different size classes.
type BytePool struct {
	pools []*sync.Pool
	sizes []int
}

// Size tiers matched to typical request buffer sizes.
var defaultSizes = []int{
	512,
	4096,
	16384,
	65536,
}

// NewBytePool creates a byte pool with the standard size tiers.
func NewBytePool() *BytePool {
	return NewBytePoolWithSizes(defaultSizes)
}

// NewBytePoolWithSizes creates a byte pool with custom size tiers.
func NewBytePoolWithSizes(sizes []int) *BytePool {
	bp := &BytePool{
		pools: make([]*sync.Pool, len(sizes)),
		sizes: sizes,
	}
	for i, size := range sizes {
		sz := size
		bp.pools[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, sz)
				return &buf
			},
		}
	}
	return bp
}

// Get returns a byte slice of at least the requested size. Sizes beyond
// the largest tier allocate directly.
func (bp *BytePool) Get(size int) []byte {
	for i, poolSize := range bp.sizes {
		if size <= poolSize {
			buf := *bp.pools[i].Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns a byte slice to its tier. Foreign capacities are dropped for
// the garbage collector.
func (bp *BytePool) Put(buf []byte) {
	capacity := cap(buf)
	for i, poolSize := range bp.sizes {
		if capacity == poolSize {
			buf = buf[:capacity]
			bp.pools[i].Put(&buf)
			return
		}
	}
}
