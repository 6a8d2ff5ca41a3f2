package cancel

import (
	"strings"
	"sync"
)

// Registry maps cancellation keys to live tokens. At most one live token
// exists per key: triggering removes the token, so a later GetOrCreate
// with the same key yields a fresh one. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[string]*Token)}
}

// GetOrCreate returns the live token for key, creating one if none exists.
func (r *Registry) GetOrCreate(key string) *Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tokens[key]; ok {
		return t
	}
	t := newToken(key)
	r.tokens[key] = t
	return t
}

// Get returns the live token for key, or nil.
func (r *Registry) Get(key string) *Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[key]
}

// Trigger fires and removes the live token for key. Returns false if no
// live token exists (double-cancel is a silent no-op).
func (r *Registry) Trigger(key string) bool {
	r.mu.Lock()
	t, ok := r.tokens[key]
	if ok {
		delete(r.tokens, key)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	t.Trigger()
	return true
}

// TriggerPrefix fires and removes every live token whose key starts with
// prefix. Returns the number of tokens triggered.
func (r *Registry) TriggerPrefix(prefix string) int {
	r.mu.Lock()
	var fired []*Token
	for key, t := range r.tokens {
		if strings.HasPrefix(key, prefix) {
			fired = append(fired, t)
			delete(r.tokens, key)
		}
	}
	r.mu.Unlock()

	for _, t := range fired {
		t.Trigger()
	}
	return len(fired)
}

// Len returns the number of live tokens.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
