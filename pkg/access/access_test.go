package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoginUnknownRole(t *testing.T) {
	ctrl := NewController(DefaultProfiles())

	err := ctrl.Login(Role("Auditor"))
	require.Error(t, err)
	require.Nil(t, ctrl.CurrentUser())
}

func TestLoginAndLogout(t *testing.T) {
	ctrl := NewController(DefaultProfiles())

	require.NoError(t, ctrl.Login(RoleReleaseManager))
	user := ctrl.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, RoleReleaseManager, user.Role)
	require.Equal(t, "Release Manager", user.DisplayName)

	ctrl.Logout()
	require.Nil(t, ctrl.CurrentUser())
	require.False(t, ctrl.HasRole(RoleReleaseManager))
}

func TestHasRole(t *testing.T) {
	type tc struct {
		name  string
		login Role
		check []Role
		want  bool
	}

	for _, c := range []tc{
		{name: "exact match", login: RoleDeveloper, check: []Role{RoleDeveloper}, want: true},
		{name: "one of several", login: RoleApplicationOwner, check: []Role{RoleReleaseManager, RoleApplicationOwner}, want: true},
		{name: "no match", login: RoleDeveloper, check: []Role{RoleReleaseManager}, want: false},
	} {
		t.Run(c.name, func(t *testing.T) {
			ctrl := NewController(DefaultProfiles())
			require.NoError(t, ctrl.Login(c.login))
			require.Equal(t, c.want, ctrl.HasRole(c.check...))
		})
	}
}

func TestIsMemberOfTeam(t *testing.T) {
	ctrl := NewController(DefaultProfiles())

	// Logged out: no membership at all.
	require.False(t, ctrl.IsMemberOfTeam("alpha-squad"))

	require.NoError(t, ctrl.Login(RoleDeveloper))
	require.True(t, ctrl.IsMemberOfTeam("alpha-squad"))
	require.True(t, ctrl.IsMemberOfTeam("sample-alpha-squad"))
	require.False(t, ctrl.IsMemberOfTeam("bravo-team"))

	// Memberships never grant edit rights to approval roles.
	require.NoError(t, ctrl.Login(RoleReleaseManager))
	require.False(t, ctrl.IsMemberOfTeam("alpha-squad"))
}

func TestAddTeamMembershipRefreshesLiveSession(t *testing.T) {
	ctrl := NewController(DefaultProfiles())
	require.NoError(t, ctrl.Login(RoleDeveloper))

	ctrl.AddTeamMembership("echo-unit-1700000000000")
	require.True(t, ctrl.IsMemberOfTeam("echo-unit-1700000000000"))

	// Idempotent.
	ctrl.AddTeamMembership("echo-unit-1700000000000")
	user := ctrl.CurrentUser()
	count := 0
	for _, id := range user.TeamIDs {
		if id == "echo-unit-1700000000000" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestAddTeamMembershipPersistsAcrossLogins(t *testing.T) {
	ctrl := NewController(DefaultProfiles())

	ctrl.AddTeamMembership("echo-unit-1700000000000")

	require.NoError(t, ctrl.Login(RoleDeveloper))
	require.True(t, ctrl.IsMemberOfTeam("echo-unit-1700000000000"))

	ctrl.Logout()
	require.NoError(t, ctrl.Login(RoleDeveloper))
	require.True(t, ctrl.IsMemberOfTeam("echo-unit-1700000000000"))
}

func TestCurrentUserReturnsCopy(t *testing.T) {
	ctrl := NewController(DefaultProfiles())
	require.NoError(t, ctrl.Login(RoleDeveloper))

	user := ctrl.CurrentUser()
	user.TeamIDs[0] = "tampered"

	require.True(t, ctrl.IsMemberOfTeam("alpha-squad"))
}
