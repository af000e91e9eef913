package idl

import (
	"fmt"
	"sort"
	"sync"
)

// TypeInfo describes one registered message type.
type TypeInfo struct {
	// Name is the DDS type name carried in every frame
	Name string
	// Size is the encoded body size in bytes, or -1 for variable-size types
	Size int
	// New returns a zero value ready for UnmarshalBinary
	New func() Message
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]TypeInfo)
)

// Register adds a message type to the registry. It panics on duplicate names, which
// can only happen through a programming error at init time.
func Register(info TypeInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[info.Name]; exists {
		panic(fmt.Sprintf("idl: type %q registered twice", info.Name))
	}
	registry[info.Name] = info
}

// Lookup returns the registered type with the given name.
func Lookup(name string) (TypeInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[name]
	return info, ok
}

// Types returns all registered types sorted by name.
func Types() []TypeInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]TypeInfo, 0, len(registry))
	for _, info := range registry {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
