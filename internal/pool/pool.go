// Package pool provides bucketed sync.Pool byte buffers for picture planes
// and NAL unit assembly. Buffers are organized by size class to minimize
// waste.
package pool

import "sync"

// Size classes for bucketed pools.
const (
	Size256B = 256
	Size4K   = 4096
	Size64K  = 65536
	Size1M   = 1048576
	Size4M   = 4194304
)

// bucketIndex returns the pool index for a given size.
func bucketIndex(size int) int {
	switch {
	case size <= Size256B:
		return 0
	case size <= Size4K:
		return 1
	case size <= Size64K:
		return 2
	case size <= Size1M:
		return 3
	default:
		return 4
	}
}

var sizes = [5]int{Size256B, Size4K, Size64K, Size1M, Size4M}

var pools [5]sync.Pool

func init() {
	for i := range pools {
		sz := sizes[i]
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
	}
}

// Get returns a byte slice of the requested length from the pool. Its
// contents are unspecified. The caller must call Put when done.
func Get(size int) []byte {
	idx := bucketIndex(size)
	bp := pools[idx].Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		b = make([]byte, size)
		*bp = b
		return b
	}
	return b[:size]
}

// GetZeroed is Get with the returned bytes cleared.
func GetZeroed(size int) []byte {
	b := Get(size)
	clear(b)
	return b
}

// Put returns a byte slice to the pool. The slice must have been obtained
// from Get. Slices smaller than Size256B are not pooled.
func Put(b []byte) {
	c := cap(b)
	if c < Size256B {
		return
	}
	idx := bucketIndex(c)
	// A slice that outgrew its class is filed under the class it fits.
	if idx > 0 && c < sizes[idx] {
		idx--
	}
	b = b[:c]
	pools[idx].Put(&b)
}
