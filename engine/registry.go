package engine

import (
	"sort"
	"sync"
)

type OperationKind string

const (
	OpPull OperationKind = "pull"
	OpPush OperationKind = "push"
)

// OperationKey identifies one in-flight operation. Membership in the
// registry is the sole source of truth for "already running".
type OperationKey struct {
	Kind OperationKind
	Root string
}

func (k OperationKey) String() string {
	return string(k.Kind) + ":" + k.Root
}

// OperationRegistry prevents two pulls (or two pushes) for the same
// repository from racing. A single lock guards the membership set.
type OperationRegistry struct {
	mu     sync.Mutex
	active map[OperationKey]struct{}
}

func NewOperationRegistry() *OperationRegistry {
	return &OperationRegistry{
		active: make(map[OperationKey]struct{}),
	}
}

// TryBegin atomically checks and inserts key. A false return means the
// caller must abort silently: the same operation is already in flight.
func (r *OperationRegistry) TryBegin(key OperationKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, inFlight := r.active[key]; inFlight {
		return false
	}
	r.active[key] = struct{}{}
	return true
}

// End releases key. Callers pair it with a successful TryBegin via defer so
// every failure path releases exactly once.
func (r *OperationRegistry) End(key OperationKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, key)
}

// InFlight returns the current membership, sorted for stable output.
func (r *OperationRegistry) InFlight() []OperationKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]OperationKey, 0, len(r.active))
	for key := range r.active {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}
