package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsRejectUnknownKeys(t *testing.T) {
	bad := Permissions{"launch_missiles": true}
	_, err := bad.Value()
	require.Error(t, err)

	var scanned Permissions
	err = scanned.Scan(`{"manage_bookings": true, "made_up": false}`)
	require.Error(t, err)
}

func TestPermissionsRoundTrip(t *testing.T) {
	p := Permissions{PermManageBookings: true, PermManageUsers: false}

	value, err := p.Value()
	require.NoError(t, err)

	var scanned Permissions
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, p, scanned)
}

func TestHasPermission(t *testing.T) {
	t.Run("owner bypasses the permission map", func(t *testing.T) {
		owner := User{Role: RoleOwner}
		assert.True(t, owner.HasPermission(PermManageBookings))
		assert.True(t, owner.HasPermission(PermManageSettings))
	})

	t.Run("admin consults the map", func(t *testing.T) {
		admin := User{Role: RoleAdmin, Permissions: Permissions{PermManageBookings: true}}
		assert.True(t, admin.HasPermission(PermManageBookings))
		assert.False(t, admin.HasPermission(PermManageUsers), "absent key denies")
	})

	t.Run("explicit false denies", func(t *testing.T) {
		admin := User{Role: RoleAdmin, Permissions: Permissions{PermManageUsers: false}}
		assert.False(t, admin.HasPermission(PermManageUsers))
	})

	t.Run("non-admin roles are always denied", func(t *testing.T) {
		cleaner := User{Role: RoleCleaner, Permissions: Permissions{PermManageBookings: true}}
		client := User{Role: RoleClient}
		assert.False(t, cleaner.HasPermission(PermManageBookings))
		assert.False(t, client.HasPermission(PermManageBookings))
	})
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleClient.Valid())
	assert.False(t, Role("SUPERVISOR").Valid())
}
