package dedup

import "sync"

// Checker answers whether a transaction has already been acted upon.
type Checker interface {
	Seen(txid string) bool
}

// Registry is the process-lifetime set of transaction ids this booster has
// claimed against. It is never persisted; the ledger remains authoritative.
type Registry struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Seen reports whether txid has been marked.
func (r *Registry) Seen(txid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[txid]
	return ok
}

// Mark records txid as acted upon.
func (r *Registry) Mark(txid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[txid] = struct{}{}
}

// Len returns the number of marked transactions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}
