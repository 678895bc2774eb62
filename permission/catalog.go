package permission

// User permissions.
const (
	UserView   = "user:view"
	UserCreate = "user:create"
	UserUpdate = "user:update"
	UserDelete = "user:delete"
)

// Group (circle) permissions.
const (
	GroupView   = "group:view"
	GroupCreate = "group:create"
	GroupUpdate = "group:update"
	GroupDelete = "group:delete"
)

// Group member permissions.
const (
	GroupMemberView   = "group_member:view"
	GroupMemberAdd    = "group_member:add"
	GroupMemberRemove = "group_member:remove"
	GroupMemberUpdate = "group_member:update"
)

// Friendship permissions.
const (
	FriendshipView   = "friendship:view"
	FriendshipCreate = "friendship:create"
	FriendshipUpdate = "friendship:update"
	FriendshipDelete = "friendship:delete"
)

// Counter permissions.
const (
	CounterView   = "counter:view"
	CounterUpdate = "counter:update"
)

// Role permissions.
const (
	RoleView   = "role:view"
	RoleCreate = "role:create"
	RoleUpdate = "role:update"
	RoleDelete = "role:delete"
)

// Setting permissions.
const (
	SettingView   = "setting:view"
	SettingCreate = "setting:create"
	SettingUpdate = "setting:update"
)

// Built-in role names.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleChuHui     = "chu_hui"  // circle owner
	RoleHuiVien    = "hui_vien" // circle member
	RoleGuest      = "guest"
)

var all = []string{
	UserView, UserCreate, UserUpdate, UserDelete,
	GroupView, GroupCreate, GroupUpdate, GroupDelete,
	GroupMemberView, GroupMemberAdd, GroupMemberRemove, GroupMemberUpdate,
	FriendshipView, FriendshipCreate, FriendshipUpdate, FriendshipDelete,
	CounterView, CounterUpdate,
	RoleView, RoleCreate, RoleUpdate, RoleDelete,
	SettingView, SettingCreate, SettingUpdate,
}

// All returns every known permission in declaration order.
func All() []string {
	out := make([]string, len(all))
	copy(out, all)
	return out
}

// RoleDefinition is a role name with its permission list and description.
type RoleDefinition struct {
	Name        string
	Description string
	Permissions []string
}

// Catalog returns the built-in role definitions. The returned slices are
// fresh copies and may be modified by the caller.
func Catalog() []RoleDefinition {
	return []RoleDefinition{
		{
			Name:        RoleSuperAdmin,
			Description: "Full access to every resource",
			Permissions: All(),
		},
		{
			Name:        RoleAdmin,
			Description: "Platform administrator",
			Permissions: []string{
				UserView, UserCreate, UserUpdate, UserDelete,
				GroupView, GroupCreate, GroupUpdate, GroupDelete,
				RoleView, RoleCreate, RoleUpdate, RoleDelete,
				FriendshipView, FriendshipCreate, FriendshipUpdate, FriendshipDelete,
				GroupMemberView, GroupMemberAdd, GroupMemberRemove, GroupMemberUpdate,
				SettingView, SettingCreate, SettingUpdate,
			},
		},
		{
			Name:        RoleChuHui,
			Description: "Circle owner",
			Permissions: []string{
				GroupView, GroupCreate, GroupUpdate, GroupDelete,
				GroupMemberView, GroupMemberAdd, GroupMemberRemove, GroupMemberUpdate,
				FriendshipView, FriendshipCreate, FriendshipUpdate, FriendshipDelete,
			},
		},
		{
			Name:        RoleHuiVien,
			Description: "Circle member",
			Permissions: []string{GroupView, GroupMemberView, FriendshipView},
		},
		{
			Name:        RoleGuest,
			Description: "Guest",
			Permissions: []string{GroupView, GroupMemberView, FriendshipView},
		},
	}
}

// CatalogMap returns [Catalog] keyed by role name.
func CatalogMap() map[string][]string {
	defs := Catalog()
	out := make(map[string][]string, len(defs))
	for _, d := range defs {
		out[d.Name] = d.Permissions
	}
	return out
}
