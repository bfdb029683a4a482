package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Factory creates an unconnected adapter. A nil logger means discard.
type Factory func(logger *slog.Logger) Adapter

// Registration describes one export target.
type Registration struct {
	Name string
	// FileBased adapters write to Config.Path; the others use host fields.
	FileBased bool
	Factory   Factory
}

// ErrNoType is returned by NewAdapter when the config names no adapter.
var ErrNoType = errors.New("adapter type not specified")

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register adds an export target. It is meant to be called from init
// functions and panics on an empty name, a nil factory or a duplicate.
func Register(r Registration) {
	if r.Name == "" || r.Factory == nil {
		panic("adapter: Register requires a name and a factory")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[r.Name]; dup {
		panic(fmt.Sprintf("adapter: Register called twice for %q", r.Name))
	}
	registry[r.Name] = r
}

// Lookup returns the registration for name.
func Lookup(name string) (Registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[name]
	return r, ok
}

// NewAdapter creates an unconnected adapter for cfg.Type.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, ErrNoType
	}
	r, ok := Lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if r.FileBased && cfg.Path == "" {
		return nil, fmt.Errorf("%s export needs a database path (export.path)", cfg.Type)
	}
	return r.Factory(logger), nil
}

// ListAdapters returns the registered names in sorted order.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether name has been registered.
func IsRegistered(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// UnknownAdapterError is returned for an export type nobody registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown export type %q (available: %s); check export.type in nutripipe.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
