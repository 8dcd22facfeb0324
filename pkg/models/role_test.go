package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_TokensAreWellFormed(t *testing.T) {
	t.Parallel()

	seen := map[Permission]bool{}
	for _, p := range Catalog {
		parts := strings.Split(string(p), ":")
		require.Len(t, parts, 2, "permission %q should be resource:action", p)
		assert.NotEmpty(t, parts[0])
		assert.NotEmpty(t, parts[1])
		assert.False(t, seen[p], "permission %q listed twice", p)
		seen[p] = true
	}
}

func TestInCatalog(t *testing.T) {
	t.Parallel()

	assert.True(t, InCatalog(PermBooksRead))
	assert.True(t, InCatalog(PermUsersDelete))
	assert.False(t, InCatalog(Permission("books:*")))
	assert.False(t, InCatalog(Permission("*:*")))
	assert.False(t, InCatalog(Permission("books")))
	assert.False(t, InCatalog(Permission("")))
}

func TestDefaultPermissionsForRole_SubsetOfCatalog(t *testing.T) {
	t.Parallel()

	for _, role := range []Role{RoleUser, RoleLibrarian, RoleAdmin, RoleSuperAdmin} {
		for _, p := range DefaultPermissionsForRole(role) {
			assert.True(t, InCatalog(p), "role %q grants %q which is not in the catalog", role, p)
		}
	}
}

func TestDefaultPermissionsForRole_SuperAdminHoldsFullCatalog(t *testing.T) {
	t.Parallel()

	assert.ElementsMatch(t, Catalog, DefaultPermissionsForRole(RoleSuperAdmin))
}

func TestDefaultPermissionsForRole_AdminLacksOnlyUserDeletion(t *testing.T) {
	t.Parallel()

	perms := DefaultPermissionsForRole(RoleAdmin)
	assert.NotContains(t, perms, PermUsersDelete)
	assert.Len(t, perms, len(Catalog)-1)
}

func TestDefaultPermissionsForRole_UserIsReadOnly(t *testing.T) {
	t.Parallel()

	for _, p := range DefaultPermissionsForRole(RoleUser) {
		action := strings.Split(string(p), ":")[1]
		assert.Equal(t, "read", action, "role %q should only hold read permissions, got %q", RoleUser, p)
	}
}

func TestDefaultPermissionsForRole_UnknownRoleIsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, DefaultPermissionsForRole(Role("Janitor")))
}

func TestDefaultPermissionsForRole_ReturnsCopy(t *testing.T) {
	t.Parallel()

	perms := DefaultPermissionsForRole(RoleUser)
	require.NotEmpty(t, perms)
	perms[0] = Permission("tampered:evil")

	assert.NotContains(t, DefaultPermissionsForRole(RoleUser), Permission("tampered:evil"))
}

func TestHasAll(t *testing.T) {
	t.Parallel()

	granted := []Permission{PermBooksRead, PermBooksCreate}

	assert.True(t, HasAll(granted, []Permission{PermBooksRead}))
	assert.True(t, HasAll(granted, []Permission{PermBooksRead, PermBooksCreate}))
	assert.True(t, HasAll(granted, nil))
	assert.False(t, HasAll(granted, []Permission{PermBooksDelete}))
	assert.False(t, HasAll(nil, []Permission{PermBooksRead}))
}

func TestUser_EffectivePermissions_UnionsGrants(t *testing.T) {
	t.Parallel()

	u := &User{
		Role: RoleUser,
		Permissions: []*UserPermission{
			{Permission: PermBooksCreate},
			{Permission: PermBooksRead}, // already a role default
		},
	}

	effective := u.EffectivePermissions()
	assert.Contains(t, effective, PermBooksCreate)

	counts := map[Permission]int{}
	for _, p := range effective {
		counts[p]++
	}
	assert.Equal(t, 1, counts[PermBooksRead], "duplicates should collapse")
}

func TestRole_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleLibrarian.Valid())
	assert.True(t, RoleSuperAdmin.Valid())
	assert.False(t, Role("Janitor").Valid())
}
