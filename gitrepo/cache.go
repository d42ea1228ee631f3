package gitrepo

import "sync"

// Opener constructs a handle for one repository root.
type Opener func(dir string) (Repository, error)

// Cache hands out at most one Repository per resolved root for the process
// lifetime. Failed opens are not cached so a later trigger can retry.
type Cache struct {
	mu      sync.Mutex
	open    Opener
	handles map[string]Repository
}

func NewCache(open Opener) *Cache {
	return &Cache{
		open:    open,
		handles: make(map[string]Repository),
	}
}

func (c *Cache) Open(dir string) (Repository, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if handle, ok := c.handles[dir]; ok {
		return handle, nil
	}

	handle, err := c.open(dir)
	if err != nil {
		return nil, err
	}
	c.handles[dir] = handle
	return handle, nil
}

// Reset drops every cached handle. Entries are otherwise never evicted.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles = make(map[string]Repository)
}
