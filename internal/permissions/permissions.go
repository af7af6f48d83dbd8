// Package permissions centralizes the role-based access table for the
// back-office. Roles are backend-owned claims ("admin", "superadmin").
package permissions

// Permission names a guarded capability of the console.
type Permission string

const (
	AdminsSection Permission = "admins.section"
	AdminsView    Permission = "admins.view"
	AdminsCreate  Permission = "admins.create"
	AdminsModify  Permission = "admins.modify"
	AdminsDelete  Permission = "admins.delete"

	CashiersSection Permission = "cashiers.section"
	CashiersView    Permission = "cashiers.view"
	CashiersCreate  Permission = "cashiers.create"
	CashiersModify  Permission = "cashiers.modify"
	CashiersDelete  Permission = "cashiers.delete"

	ConfigView   Permission = "config.view"
	ConfigModify Permission = "config.modify"

	TransactionsView   Permission = "transactions.view"
	TransactionsCancel Permission = "transactions.cancel"

	AdministrationSection Permission = "administration.section"
)

// RoleAdmin and RoleSuperAdmin are the roles the backend issues in tokens.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// table maps each permission to the roles allowed to use it. Managing admin
// accounts and mutating configuration is reserved for superadmin.
var table = map[Permission][]string{
	AdminsSection: {RoleSuperAdmin},
	AdminsView:    {RoleSuperAdmin},
	AdminsCreate:  {RoleSuperAdmin},
	AdminsModify:  {RoleSuperAdmin},
	AdminsDelete:  {RoleSuperAdmin},

	CashiersSection: {RoleAdmin, RoleSuperAdmin},
	CashiersView:    {RoleAdmin, RoleSuperAdmin},
	CashiersCreate:  {RoleAdmin, RoleSuperAdmin},
	CashiersModify:  {RoleAdmin, RoleSuperAdmin},
	CashiersDelete:  {RoleAdmin, RoleSuperAdmin},

	ConfigView:   {RoleAdmin, RoleSuperAdmin},
	ConfigModify: {RoleSuperAdmin},

	TransactionsView:   {RoleAdmin, RoleSuperAdmin},
	TransactionsCancel: {RoleSuperAdmin},

	AdministrationSection: {RoleAdmin, RoleSuperAdmin},
}

// roleLevels order roles for hierarchy comparisons. Higher means more access.
var roleLevels = map[string]int{
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Allowed reports whether the role may use the permission. Unknown roles and
// unknown permissions are denied.
func Allowed(role string, perm Permission) bool {
	if role == "" {
		return false
	}
	roles, ok := table[perm]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Level returns the hierarchy level for a role, 0 if unknown.
func Level(role string) int {
	return roleLevels[role]
}
