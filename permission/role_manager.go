package permission

import (
	"errors"
	"sort"
	"sync"
)

// RoleManager holds role definitions validated against a [Registry].
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string][]string
	frozen bool
}

// NewRoleManager creates a [RoleManager] bound to registry.
func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{
		registry: registry,
		roles:    make(map[string][]string),
	}
}

// NewDefaultRoleManager returns a frozen manager holding [Catalog].
func NewDefaultRoleManager() *RoleManager {
	rm := NewRoleManager(NewDefaultRegistry())
	for _, def := range Catalog() {
		_ = rm.RegisterRole(def.Name, def.Permissions)
	}
	rm.Freeze()
	return rm
}

// RegisterRole records roleName with the given permissions. Every
// permission must already be registered.
func (rm *RoleManager) RegisterRole(roleName string, permissionNames []string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.frozen {
		return errors.New("role manager frozen")
	}
	if roleName == "" {
		return errors.New("role name empty")
	}
	if _, exists := rm.roles[roleName]; exists {
		return errors.New("role already registered")
	}

	perms := make([]string, 0, len(permissionNames))
	seen := make(map[string]struct{}, len(permissionNames))
	for _, perm := range permissionNames {
		if !rm.registry.Has(perm) {
			return errors.New("permission not registered: " + perm)
		}
		if _, dup := seen[perm]; dup {
			continue
		}
		seen[perm] = struct{}{}
		perms = append(perms, perm)
	}

	rm.roles[roleName] = perms
	return nil
}

// Permissions returns a copy of the permission list for roleName.
func (rm *RoleManager) Permissions(roleName string) ([]string, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	perms, ok := rm.roles[roleName]
	if !ok {
		return nil, false
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out, true
}

// Roles returns the registered role names, sorted.
func (rm *RoleManager) Roles() []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	out := make([]string, 0, len(rm.roles))
	for name := range rm.roles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Freeze prevents further role registration.
func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.frozen = true
}

// Count returns the number of registered roles.
func (rm *RoleManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.roles)
}
