package llm

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds named providers so the engine can be wired against a
// configured provider without knowing its concrete type.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a provider under its own name. Registering the same name
// twice replaces the earlier provider.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Name()] = c
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (registered: %v)", name, r.names())
	}
	return c, nil
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
