// Package model defines domain models and types used throughout the
// application: identities, authorized admins, links, profile settings,
// click events, and audit events.
package model

// Role is the closed set of admin roles.
type Role string

// Admin roles, from most to least privileged.
const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
)

// ValidRoles contains all assignable roles.
var ValidRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleEditor}

// roleCapabilities maps each role to its capability set. A single lookup
// table replaces scattered role-string comparisons.
type capabilities struct {
	manageUsers   bool
	manageContent bool
	admin         bool
	superAdmin    bool
}

var roleCapabilities = map[Role]capabilities{
	RoleSuperAdmin: {manageUsers: true, manageContent: true, admin: true, superAdmin: true},
	RoleAdmin:      {manageUsers: true, manageContent: true, admin: true},
	RoleEditor:     {manageContent: true},
}

// IsValid reports whether r is one of the assignable roles.
func (r Role) IsValid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// CanManageUsers reports whether the role may view and create admin users.
func (r Role) CanManageUsers() bool {
	return roleCapabilities[r].manageUsers
}

// CanManageContent reports whether the role may edit links and profile settings.
func (r Role) CanManageContent() bool {
	return roleCapabilities[r].manageContent
}

// IsAdmin reports whether the role carries admin authority (super_admin or admin).
func (r Role) IsAdmin() bool {
	return roleCapabilities[r].admin
}

// IsSuperAdmin reports whether the role is super_admin.
func (r Role) IsSuperAdmin() bool {
	return roleCapabilities[r].superAdmin
}
