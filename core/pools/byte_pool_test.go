package pools

import "testing"

func TestGetSized(t *testing.T) {
	bp := NewBytePool()

	for _, size := range []int{1, 512, 600, 4096, 70000} {
		buf := bp.Get(size)
		if len(buf) != size {
			t.Errorf("Get(%d) len = %d", size, len(buf))
		}
		bp.Put(buf)
	}
}

func TestGetBeyondLargestTier(t *testing.T) {
	bp := NewBytePool()
	buf := bp.Get(1 << 20)
	if len(buf) != 1<<20 {
		t.Fatalf("len = %d", len(buf))
	}
	// Foreign capacity, silently dropped.
	bp.Put(buf)
}

func TestCustomTiers(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{64, 256})

	buf := bp.Get(100)
	if len(buf) != 100 || cap(buf) != 256 {
		t.Errorf("len = %d, cap = %d, want 100/256", len(buf), cap(buf))
	}
}

func BenchmarkGetPut(b *testing.B) {
	bp := NewBytePool()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := bp.Get(4096)
		bp.Put(buf)
	}
}
