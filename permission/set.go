package permission

// Set is an immutable collection of permission strings.
type Set struct {
	items map[string]struct{}
}

// NewSet builds a [Set] from perms. Duplicates are ignored.
func NewSet(perms ...string) Set {
	items := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		items[p] = struct{}{}
	}
	return Set{items: items}
}

// Has reports whether p is in the set.
func (s Set) Has(p string) bool {
	_, ok := s.items[p]
	return ok
}

// Len returns the number of permissions.
func (s Set) Len() int { return len(s.items) }

// ContainsAll reports whether every permission in required is held.
// An empty required list is always satisfied.
func (s Set) ContainsAll(required ...string) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Missing returns the entries of required that are not held, in order.
func (s Set) Missing(required ...string) []string {
	var out []string
	for _, p := range required {
		if !s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}
