package kernel

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestQueueTryRecvEmpty(t *testing.T) {
	q := NewQueue()

	_, ok := q.TryRecv()
	if ok {
		t.Fatalf("TryRecv() ok = true, want false")
	}
}

func TestQueueTrySendFull(t *testing.T) {
	q := NewQueue()

	for i := 0; i < QueueSlots; i++ {
		if ok := q.TrySend(Event{Kind: 1, Value: uint32(i)}); !ok {
			t.Fatalf("TrySend() ok = false at slot %d, want true", i)
		}
	}
	if ok := q.TrySend(Event{Kind: 1}); ok {
		t.Fatalf("TrySend() ok = true when full, want false")
	}
	if got := q.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}

	for i := 0; i < QueueSlots; i++ {
		ev, ok := q.TryRecv()
		if !ok {
			t.Fatalf("TryRecv() ok = false at slot %d, want true", i)
		}
		if ev.Value != uint32(i) {
			t.Fatalf("TryRecv() Value = %d, want %d", ev.Value, i)
		}
	}
	if ok := q.TrySend(Event{Kind: 2}); !ok {
		t.Fatalf("TrySend() after drain ok = false, want true")
	}
}

func TestQueueRecvTimeoutExpires(t *testing.T) {
	q := NewQueue()

	start := time.Now()
	if _, ok := q.RecvTimeout(context.Background(), 20*time.Millisecond); ok {
		t.Fatalf("RecvTimeout() ok = true on empty queue, want false")
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("RecvTimeout() returned after %v, want >= 15ms", elapsed)
	}
}

func TestQueueRecvTimeoutWakesOnSend(t *testing.T) {
	q := NewQueue()

	go func() {
		time.Sleep(5 * time.Millisecond)
		q.TrySend(Event{Kind: 7, Arg: 3})
	}()

	ev, ok := q.RecvTimeout(context.Background(), 5*time.Second)
	if !ok {
		t.Fatalf("RecvTimeout() ok = false, want true")
	}
	if ev.Kind != 7 || ev.Arg != 3 {
		t.Fatalf("RecvTimeout() = %+v, want Kind=7 Arg=3", ev)
	}
}

func TestQueueRecvTimeoutCanceled(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := q.RecvTimeout(ctx, time.Minute); ok {
		t.Fatalf("RecvTimeout() ok = true after cancel, want false")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(oldProcs)

	const (
		producers = 4
		perProd   = 10_000
		total     = producers * perProd
	)

	q := NewQueue()

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(producers)
	for producerID := 0; producerID < producers; producerID++ {
		go func(producerID int) {
			defer wg.Done()
			<-start
			for i := 0; i < perProd; i++ {
				ev := Event{Kind: uint8(producerID), Value: uint32(producerID*perProd + i)}
				for !q.TrySend(ev) {
					runtime.Gosched()
				}
			}
		}(producerID)
	}
	close(start)

	seen := make([]bool, total)
	for i := 0; i < total; i++ {
		ev, ok := q.RecvTimeout(context.Background(), 5*time.Second)
		if !ok {
			t.Fatalf("RecvTimeout() ok = false after %d events", i)
		}
		id := ev.Value
		if int(id) >= total {
			t.Fatalf("RecvTimeout() id = %d, want < %d", id, total)
		}
		if seen[id] {
			t.Fatalf("RecvTimeout() duplicate id %d", id)
		}
		seen[id] = true
	}

	wg.Wait()
}
