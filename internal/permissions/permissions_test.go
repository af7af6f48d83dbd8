package permissions

import "testing"

func TestSuperAdminOnlyPermissions(t *testing.T) {
	for _, perm := range []Permission{AdminsSection, AdminsCreate, AdminsDelete, ConfigModify, TransactionsCancel} {
		if Allowed(RoleAdmin, perm) {
			t.Errorf("admin allowed %s", perm)
		}
		if !Allowed(RoleSuperAdmin, perm) {
			t.Errorf("superadmin denied %s", perm)
		}
	}
}

func TestSharedPermissions(t *testing.T) {
	for _, perm := range []Permission{CashiersView, CashiersModify, ConfigView, TransactionsView, AdministrationSection} {
		if !Allowed(RoleAdmin, perm) {
			t.Errorf("admin denied %s", perm)
		}
		if !Allowed(RoleSuperAdmin, perm) {
			t.Errorf("superadmin denied %s", perm)
		}
	}
}

func TestUnknownRoleAndPermissionDenied(t *testing.T) {
	if Allowed("cajero", ConfigView) {
		t.Error("unknown role allowed")
	}
	if Allowed("", ConfigView) {
		t.Error("empty role allowed")
	}
	if Allowed(RoleSuperAdmin, Permission("reports.view")) {
		t.Error("unknown permission allowed")
	}
}

func TestRoleLevels(t *testing.T) {
	if Level(RoleSuperAdmin) <= Level(RoleAdmin) {
		t.Errorf("superadmin level %d not above admin level %d", Level(RoleSuperAdmin), Level(RoleAdmin))
	}
	if Level("jugador") != 0 {
		t.Errorf("unknown role level = %d", Level("jugador"))
	}
}
