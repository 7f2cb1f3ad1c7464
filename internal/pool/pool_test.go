package pool

import (
	"runtime"
	"sync"
	"testing"
)

func TestGetPut_ExactSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"256B", 256},
		{"4K", 4096},
		{"64K", 65536},
		{"1M", 1048576},
		{"CIF luma", 352 * 288},
		{"500B", 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Get(tt.size)
			if len(b) != tt.size {
				t.Errorf("Get(%d): len = %d, want %d", tt.size, len(b), tt.size)
			}
			Put(b)
		})
	}
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		size, want int
	}{
		{1, 0}, {256, 0}, {257, 1}, {4096, 1}, {4097, 2},
		{65536, 2}, {65537, 3}, {1048576, 3}, {1048577, 4}, {8 << 20, 4},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.size); got != tt.want {
			t.Errorf("bucketIndex(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestGet_LargeSize(t *testing.T) {
	// Sizes above the largest class allocate a fresh slice.
	largeSize := 2 * Size4M
	b := Get(largeSize)
	if len(b) != largeSize || cap(b) < largeSize {
		t.Errorf("Get(%d): len = %d cap = %d", largeSize, len(b), cap(b))
	}
	Put(b)
}

func TestGetZeroed(t *testing.T) {
	b := Get(Size4K)
	for i := range b {
		b[i] = 0xAB
	}
	Put(b)
	runtime.GC()
	z := GetZeroed(Size4K)
	for i, v := range z {
		if v != 0 {
			t.Fatalf("GetZeroed: byte %d = %#x, want 0", i, v)
		}
	}
	Put(z)
}

func TestPut_SmallAndNil(t *testing.T) {
	Put(make([]byte, 100))
	Put(make([]byte, 0, 10))
	Put(nil)
	if b := Get(256); len(b) != 256 {
		t.Errorf("Get(256) after small Put: len = %d, want 256", len(b))
	}
}

func TestPut_OddCapacityReusable(t *testing.T) {
	// A 1000-byte buffer is filed under the 256B class and must still
	// satisfy any Get served from that class.
	Put(make([]byte, 1000))
	for i := 0; i < 8; i++ {
		b := Get(200)
		if len(b) != 200 || cap(b) < 200 {
			t.Fatalf("Get(200): len = %d cap = %d", len(b), cap(b))
		}
		Put(b)
	}
}

func TestConcurrency(t *testing.T) {
	const goroutines = 16
	const iterations = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				for _, size := range []int{128, 2048, 32768, 524288} {
					b := Get(size)
					if len(b) != size {
						t.Errorf("concurrent Get(%d): len = %d", size, len(b))
						return
					}
					for j := range b {
						b[j] = byte(j)
					}
					Put(b)
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkGet(b *testing.B) {
	for _, size := range []int{256, 4096, 65536, 1048576} {
		b.Run("", func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Put(Get(size))
			}
		})
	}
}
