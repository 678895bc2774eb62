package permission

import (
	"errors"
	"strings"
	"sync"
)

// Registry records the set of permission names a deployment accepts.
// Registration order is preserved and exposed through [Registry.Names].
type Registry struct {
	mu     sync.RWMutex
	index  map[string]int
	names  []string
	frozen bool
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// NewDefaultRegistry creates a frozen [Registry] holding [All].
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range all {
		// catalog constants are well-formed and unique
		_, _ = r.Register(p)
	}
	r.Freeze()
	return r
}

// Register adds a permission name and returns its registration index.
// Names must have the form "resource:action". Must be called before
// [Registry.Freeze].
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, errors.New("registry frozen")
	}
	if err := ValidateName(name); err != nil {
		return -1, err
	}
	if _, exists := r.index[name]; exists {
		return -1, errors.New("permission already registered")
	}

	idx := len(r.names)
	r.index[name] = idx
	r.names = append(r.names, name)

	return idx, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[name]
	return ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered permissions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// ValidateName checks the "resource:action" shape.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("permission name cannot be empty")
	}
	resource, action, ok := strings.Cut(name, ":")
	if !ok || resource == "" || action == "" || strings.Contains(action, ":") {
		return errors.New("permission name must be resource:action")
	}
	if strings.ContainsAny(name, " \t\n*") {
		return errors.New("permission name contains invalid characters")
	}
	return nil
}
