package kernel

import (
	"sync"
	"testing"
)

type point struct{ X, Y int }

func TestSnapshotEmpty(t *testing.T) {
	var s Snapshot[point]

	if _, ok, seq := s.Load(); ok || seq != 0 {
		t.Fatalf("Load() ok=%v seq=%d, want false 0", ok, seq)
	}
}

func TestSnapshotPublishClear(t *testing.T) {
	var s Snapshot[point]

	seq1 := s.Publish(point{1, 2})
	v, ok, seq := s.Load()
	if !ok || v != (point{1, 2}) || seq != seq1 {
		t.Fatalf("Load() = %v %v %d, want {1 2} true %d", v, ok, seq, seq1)
	}

	seq2 := s.Clear()
	if seq2 <= seq1 {
		t.Fatalf("Clear() seq = %d, want > %d", seq2, seq1)
	}
	if _, ok, seq := s.Load(); ok || seq != seq2 {
		t.Fatalf("Load() after Clear ok=%v seq=%d, want false %d", ok, seq, seq2)
	}
	if got := s.Seq(); got != seq2 {
		t.Fatalf("Seq() = %d, want %d", got, seq2)
	}
}

func TestSnapshotReadersSeeConsistentValues(t *testing.T) {
	var s Snapshot[point]
	const writes = 10_000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			s.Publish(point{i, -i})
		}
	}()

	var last uint64
	for {
		v, ok, seq := s.Load()
		if ok && v.X != -v.Y {
			t.Fatalf("Load() torn value %+v", v)
		}
		if seq < last {
			t.Fatalf("Load() seq went backwards: %d < %d", seq, last)
		}
		last = seq
		if seq == writes {
			break
		}
	}
	wg.Wait()
}
