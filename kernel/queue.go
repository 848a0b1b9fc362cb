package kernel

import (
	"context"
	"sync/atomic"
	"time"
)

// Event is the fixed-size element carried from interrupt handlers to tasks.
type Event struct {
	Kind  uint8
	Arg   uint8
	Value uint32
}

// QueueSlots is the capacity of a Queue.
const QueueSlots = 16

type queueCell struct {
	seq atomic.Uint32
	ev  Event
}

// Queue is a bounded multi-producer, single-consumer event queue.
//
// TrySend never blocks and never allocates, so it is safe to call from an
// interrupt handler. Only one goroutine may receive.
type Queue struct {
	_       [0]func() // prevent accidental copying.
	head    atomic.Uint32
	tail    atomic.Uint32
	cells   [QueueSlots]queueCell
	notify  chan struct{}
	dropped atomic.Uint32
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	q := &Queue{notify: make(chan struct{}, 1)}
	for i := range q.cells {
		q.cells[i].seq.Store(uint32(i))
	}
	return q
}

// TrySend attempts to enqueue ev, returning false if the queue is full.
func (q *Queue) TrySend(ev Event) bool {
	for {
		pos := q.head.Load()
		cell := &q.cells[pos%QueueSlots]
		diff := int32(cell.seq.Load() - pos)
		switch {
		case diff == 0:
			if !q.head.CompareAndSwap(pos, pos+1) {
				continue
			}
			cell.ev = ev
			cell.seq.Store(pos + 1)
			select {
			case q.notify <- struct{}{}:
			default:
			}
			return true
		case diff < 0:
			q.dropped.Add(1)
			return false
		}
		// Another producer claimed the cell first.
	}
}

// TryRecv attempts to dequeue one event, returning false if empty.
func (q *Queue) TryRecv() (Event, bool) {
	pos := q.tail.Load()
	cell := &q.cells[pos%QueueSlots]
	if int32(cell.seq.Load()-(pos+1)) < 0 {
		return Event{}, false
	}
	ev := cell.ev
	cell.seq.Store(pos + QueueSlots)
	q.tail.Store(pos + 1)
	return ev, true
}

// RecvTimeout waits up to d for one event. It returns false on timeout or
// when ctx is done.
func (q *Queue) RecvTimeout(ctx context.Context, d time.Duration) (Event, bool) {
	if ev, ok := q.TryRecv(); ok {
		return ev, true
	}

	t := time.NewTimer(d)
	defer t.Stop()
	for {
		select {
		case <-q.notify:
			if ev, ok := q.TryRecv(); ok {
				return ev, true
			}
		case <-t.C:
			return q.TryRecv()
		case <-ctx.Done():
			return Event{}, false
		}
	}
}

// Dropped reports how many sends failed because the queue was full.
func (q *Queue) Dropped() uint32 {
	return q.dropped.Load()
}
