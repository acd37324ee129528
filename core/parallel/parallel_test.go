package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	tests := []struct {
		name  string
		items int
	}{
		{"empty", 0},
		{"single", 1},
		{"fewer than cores", 3},
		{"many", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var count int64
			Parallelize(tt.items, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt64(&count, 1)
				}
			})
			if count != int64(tt.items) {
				t.Errorf("visited %d items, want %d", count, tt.items)
			}
		})
	}
}

func TestParallelizeDisjointRanges(t *testing.T) {
	const items = 500
	seen := make([]int32, items)
	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("index %d visited %d times", i, n)
		}
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("sequential path got range [%d, %d), want [0, 10)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("sequential path made %d calls, want 1", calls)
	}
}

func TestParallelizeWithThresholdParallel(t *testing.T) {
	var count int64
	ParallelizeWithThreshold(1000, 10, func(start, end int) {
		atomic.AddInt64(&count, int64(end-start))
	})
	if count != 1000 {
		t.Errorf("visited %d items, want 1000", count)
	}
}
