package capture

import (
	"fmt"
	"sync"
)

// Log is the ordered, duplicate-free record of calls for one bot instance.
type Log struct {
	mu    sync.Mutex
	calls []Call
	seen  map[string]struct{}
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{seen: make(map[string]struct{})}
}

// Record appends call unless an entry with the same update id, method and
// structurally equal payload is already present. It reports whether the call
// was appended.
func (l *Log) Record(call Call) (bool, error) {
	key, err := call.key()
	if err != nil {
		return false, fmt.Errorf("canonicalize %s payload: %w", call.Method, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]struct{})
	}
	if _, dup := l.seen[key]; dup {
		return false, nil
	}
	l.seen[key] = struct{}{}
	l.calls = append(l.calls, call)
	return true, nil
}

// Calls returns a snapshot of the recorded calls, oldest first.
func (l *Log) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// Last returns up to n most recent calls, oldest first.
func (l *Log) Last(n int) []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 {
		return []Call{}
	}
	start := len(l.calls) - n
	if start < 0 {
		start = 0
	}
	out := make([]Call, len(l.calls)-start)
	copy(out, l.calls[start:])
	return out
}

// Len returns the number of recorded calls.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}
