// Package access holds the active session's role and team memberships and
// answers the permission predicates that gate every mutating UI action.
// Role profiles are a simulation of fixed identities, injected at
// construction rather than kept as process-wide globals.
package access

import (
	"fmt"
	"sync"
)

type Role string

const (
	RoleDeveloper        Role = "Developer"
	RoleReleaseManager   Role = "ReleaseManager"
	RoleApplicationOwner Role = "ApplicationOwner"
)

// Profile is the fixed identity a role logs in as. The Developer profile
// accumulates team memberships for the lifetime of the controller.
type Profile struct {
	Role        Role
	DisplayName string
	TeamIDs     []string
}

// User is the active session state derived from a profile at login.
type User struct {
	Role        Role
	DisplayName string
	TeamIDs     []string
}

type Controller struct {
	mu       sync.RWMutex
	profiles map[Role]*Profile
	current  *User
}

// DefaultProfiles returns the standard role→profile table: a developer
// embedded in the alpha squad (server-issued and sample team IDs), and the
// two approval roles with no memberships.
func DefaultProfiles() []Profile {
	return []Profile{
		{Role: RoleDeveloper, DisplayName: "Developer", TeamIDs: []string{"alpha-squad", "sample-alpha-squad"}},
		{Role: RoleReleaseManager, DisplayName: "Release Manager"},
		{Role: RoleApplicationOwner, DisplayName: "Application Owner"},
	}
}

func NewController(profiles []Profile) *Controller {
	table := make(map[Role]*Profile, len(profiles))
	for _, p := range profiles {
		cp := p
		cp.TeamIDs = append([]string(nil), p.TeamIDs...)
		table[p.Role] = &cp
	}
	return &Controller{profiles: table}
}

// Login replaces the current session with the profile for the given role.
func (c *Controller) Login(role Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	profile, ok := c.profiles[role]
	if !ok {
		return fmt.Errorf("unknown role: %s", role)
	}
	c.current = sessionFrom(profile)
	return nil
}

func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// CurrentUser returns a copy of the active session, or nil when logged out.
func (c *Controller) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return nil
	}
	cp := *c.current
	cp.TeamIDs = append([]string(nil), c.current.TeamIDs...)
	return &cp
}

// HasRole reports whether a user is logged in with one of the given roles.
func (c *Controller) HasRole(roles ...Role) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return false
	}
	for _, r := range roles {
		if c.current.Role == r {
			return true
		}
	}
	return false
}

// IsMemberOfTeam reports whether the session is a Developer belonging to
// the given team. Memberships on non-developer profiles never grant edit
// rights.
func (c *Controller) IsMemberOfTeam(teamID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil || c.current.Role != RoleDeveloper {
		return false
	}
	for _, id := range c.current.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// AddTeamMembership appends a team to the Developer profile, so a developer
// who just created a team can edit it without re-logging in. Idempotent; a
// live Developer session sees the change immediately.
func (c *Controller) AddTeamMembership(teamID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	profile, ok := c.profiles[RoleDeveloper]
	if !ok {
		return
	}
	for _, id := range profile.TeamIDs {
		if id == teamID {
			return
		}
	}
	profile.TeamIDs = append(profile.TeamIDs, teamID)

	if c.current != nil && c.current.Role == RoleDeveloper {
		c.current = sessionFrom(profile)
	}
}

func sessionFrom(profile *Profile) *User {
	return &User{
		Role:        profile.Role,
		DisplayName: profile.DisplayName,
		TeamIDs:     append([]string(nil), profile.TeamIDs...),
	}
}
