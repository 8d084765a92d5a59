package crawler

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry. Called from adapter
// package init functions; duplicate registration panics.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[a.Chain()]; exists {
		panic(fmt.Sprintf("adapter already registered for chain %s", a.Chain()))
	}
	registry[a.Chain()] = a
}

// GetAdapter returns the adapter for a chain slug
func GetAdapter(chain string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := registry[chain]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for chain %s", chain)
	}
	return a, nil
}

// RegisteredChains returns all registered chain slugs, sorted
func RegisteredChains() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	chains := make([]string, 0, len(registry))
	for c := range registry {
		chains = append(chains, c)
	}
	sort.Strings(chains)
	return chains
}

// IsValidChain checks if a chain slug has a registered adapter
func IsValidChain(chain string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[chain]
	return ok
}
