package capture

import (
	"sort"
	"sync"
)

// Registry maps bot instance keys to their capture logs.
type Registry struct {
	mu   sync.Mutex
	logs map[string]*Log
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{logs: make(map[string]*Log)}
}

// Get returns the log for key, creating an empty one if none exists.
func (r *Registry) Get(key string) *Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logs == nil {
		r.logs = make(map[string]*Log)
	}
	log, ok := r.logs[key]
	if !ok {
		log = NewLog()
		r.logs[key] = log
	}
	return log
}

// Reset replaces the log for key with an empty one.
func (r *Registry) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.logs == nil {
		r.logs = make(map[string]*Log)
	}
	r.logs[key] = NewLog()
}

// Delete removes the log for key.
func (r *Registry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.logs, key)
}

// Keys returns the keys that currently have a log, sorted.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.logs))
	for key := range r.logs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
