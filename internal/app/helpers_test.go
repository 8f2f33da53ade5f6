package app

import (
	"bytes"
	"sync"
	"testing"

	"tunnelo/pkg/logging"
)

// syncBuffer is a bytes.Buffer safe for the concurrent writes of the
// logging package and the reads of the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogs(t *testing.T, level logging.LogLevel) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	logging.InitForCLI(level, buf)
	t.Cleanup(logging.Close)
	return buf
}

// stubPreflight replaces the PATH and kubeconfig lookups for the duration
// of the test.
func stubPreflight(t *testing.T, missingTools map[string]bool, missing []string, err error) {
	t.Helper()
	origLookPath, origMissing, origCurrent := lookPath, missingContexts, currentContext
	t.Cleanup(func() {
		lookPath = origLookPath
		missingContexts = origMissing
		currentContext = origCurrent
	})

	lookPath = func(file string) (string, error) {
		if missingTools[file] {
			return "", &notFoundError{file}
		}
		return "/usr/bin/" + file, nil
	}
	missingContexts = func(names []string) ([]string, error) {
		return missing, err
	}
	currentContext = func() (string, error) {
		return "prod", nil
	}
}

type notFoundError struct{ name string }

func (e *notFoundError) Error() string { return e.name + ": executable file not found in $PATH" }
