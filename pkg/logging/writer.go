package logging

import (
	"bytes"
	"strings"
	"sync"
)

// LineWriter is an io.Writer that emits one log entry per complete line
// written to it. It is used to capture child process output.
type LineWriter struct {
	subsystem string
	level     LogLevel

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLineWriter returns a LineWriter logging at level under subsystem.
func NewLineWriter(subsystem string, level LogLevel) *LineWriter {
	return &LineWriter{subsystem: subsystem, level: level}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf.Next(idx+1)), "\r\n")
		if line != "" {
			logInternal(w.level, w.subsystem, nil, "%s", line)
		}
	}
	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		logInternal(w.level, w.subsystem, nil, "%s", strings.TrimSpace(w.buf.String()))
		w.buf.Reset()
	}
}
