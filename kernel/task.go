package kernel

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// PanicInfo contains details about a recovered task panic.
type PanicInfo struct {
	Task  string
	Value any
	Stack []byte
}

func (p PanicInfo) String() string {
	return fmt.Sprintf("task %s: %v", p.Task, p.Value)
}

var (
	panicActive atomic.Bool
	panicOnce   sync.Once

	panicHandler atomic.Value // func(PanicInfo)
)

// InPanicMode reports whether any task has panicked.
func InPanicMode() bool {
	return panicActive.Load()
}

// SetPanicHandler installs a process-wide panic handler.
//
// The handler is invoked at most once (on the first panic). It must not panic.
func SetPanicHandler(fn func(PanicInfo)) {
	panicHandler.Store(fn)
}

// Go runs fn on its own goroutine. A panic inside fn ends only that task and
// is reported to the panic handler.
func Go(name string, fn func()) {
	go Run(name, fn)
}

// Run calls fn on the current goroutine with the same panic supervision as Go.
func Run(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			triggerPanic(PanicInfo{Task: name, Value: r})
		}
	}()
	fn()
}

func triggerPanic(info PanicInfo) {
	panicOnce.Do(func() {
		panicActive.Store(true)
		info.Stack = captureStack()
		if v := panicHandler.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}
