package hal

import (
	"bytes"
	"io"
	"sync"
)

type lineWriter struct {
	mu  sync.Mutex
	l   Logger
	buf []byte
}

// LogWriter adapts a line Logger to an io.Writer. Output is split on
// newlines; a trailing partial line is held until the next write.
func LogWriter(l Logger) io.Writer {
	return &lineWriter{l: l}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.l.WriteLineBytes(bytes.TrimRight(w.buf[:i], "\r"))
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) == 0 {
		w.buf = w.buf[:0:0]
	}
	return len(p), nil
}
