// Package store maintains the client-side snapshot of all releases and
// mediates every mutation against the portal API. Local state is only
// patched after a successful remote call; every patch rebuilds the ancestor
// chain of the changed node so readers holding an older snapshot never
// observe a partially updated tree.
package store

import (
	"context"
	"sync"

	"github.com/user/release-portal/pkg/portal"
)

// TeamRegistrar is told about newly created teams so the active session can
// gain membership without a re-login (see pkg/access).
type TeamRegistrar interface {
	AddTeamMembership(teamID string)
}

type Store struct {
	client    *portal.Client
	registrar TeamRegistrar

	mu       sync.RWMutex
	releases []portal.Release
	subs     map[int]func([]portal.Release)
	nextSub  int
	inflight map[string]struct{}
}

// New seeds the store with the bundled sample dataset so callers can render
// immediately; Load replaces it with the authoritative collection.
func New(client *portal.Client) *Store {
	return &Store{
		client:   client,
		releases: SampleReleases(),
		subs:     make(map[int]func([]portal.Release)),
		inflight: make(map[string]struct{}),
	}
}

func (s *Store) SetTeamRegistrar(r TeamRegistrar) {
	s.registrar = r
}

// Load fetches the full release collection and replaces the snapshot.
// On failure the current snapshot (sample data, or the last successful
// load) stays active.
func (s *Store) Load(ctx context.Context) error {
	releases, err := s.client.ListReleases(ctx)
	if err != nil {
		return err
	}
	s.apply(func([]portal.Release) []portal.Release {
		return releases
	})
	return nil
}

// Releases returns the current snapshot. Callers must treat it as
// immutable.
func (s *Store) Releases() []portal.Release {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.releases
}

// Get looks up a release in the current snapshot without side effects.
func (s *Store) Get(releaseID string) (portal.Release, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.releases {
		if s.releases[i].ID == releaseID {
			return s.releases[i], true
		}
	}
	return portal.Release{}, false
}

// Subscribe registers fn to be called with every new snapshot, starting
// with the current one. The returned func cancels the subscription.
func (s *Store) Subscribe(fn func([]portal.Release)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	current := s.releases
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// apply atomically swaps in the snapshot produced by patch and notifies
// subscribers with the result.
func (s *Store) apply(patch func([]portal.Release) []portal.Release) {
	s.mu.Lock()
	next := patch(s.releases)
	s.releases = next
	subs := make([]func([]portal.Release), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

func (s *Store) CreateRelease(ctx context.Context, req portal.CreateReleaseRequest) (*portal.Release, error) {
	created, err := s.client.CreateRelease(ctx, req)
	if err != nil {
		return nil, err
	}
	s.apply(func(releases []portal.Release) []portal.Release {
		next := make([]portal.Release, 0, len(releases)+1)
		next = append(next, *created)
		return append(next, releases...)
	})
	return created, nil
}

func (s *Store) UpdateRelease(ctx context.Context, releaseID string, req portal.UpdateReleaseRequest) (*portal.Release, error) {
	updated, err := s.client.UpdateRelease(ctx, releaseID, req)
	if err != nil {
		return nil, err
	}
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			r.Name = updated.Name
			r.Version = updated.Version
			r.ReleaseDate = updated.ReleaseDate
			return r
		})
	})
	return updated, nil
}

func (s *Store) DeleteRelease(ctx context.Context, releaseID string) error {
	if err := s.client.DeleteRelease(ctx, releaseID); err != nil {
		return err
	}
	s.apply(func(releases []portal.Release) []portal.Release {
		next := make([]portal.Release, 0, len(releases))
		for _, r := range releases {
			if r.ID != releaseID {
				next = append(next, r)
			}
		}
		return next
	})
	return nil
}

// SetOverallSignOff updates the release-level application-owner sign-off.
// Completing it additionally fires the approval notification; that call is
// fire-and-forget and never affects local state.
func (s *Store) SetOverallSignOff(ctx context.Context, releaseID string, status portal.SignOffStatus) (*portal.Release, error) {
	updated, err := s.client.UpdateOverallSignOff(ctx, releaseID, status)
	if err != nil {
		return nil, err
	}
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			r.OverallAppOwnerSignedOff = updated.OverallAppOwnerSignedOff
			return r
		})
	})

	if status == portal.SignOffCompleted {
		go func() {
			if err := s.client.SendApprovalNotification(context.Background(), releaseID); err != nil {
				logWarn(err, releaseID, "approval notification failed")
			}
		}()
	}

	return updated, nil
}

// NotifyApproval triggers the approval notification without touching any
// sign-off state.
func (s *Store) NotifyApproval(ctx context.Context, releaseID string) error {
	return s.client.SendApprovalNotification(ctx, releaseID)
}

// ListAllTeams fetches every known team, for the release-creation picker.
// It does not touch the snapshot.
func (s *Store) ListAllTeams(ctx context.Context) ([]portal.Team, error) {
	return s.client.ListTeams(ctx)
}

func (s *Store) CreateTeam(ctx context.Context, releaseID string, req portal.CreateTeamRequest) (*portal.Team, error) {
	created, err := s.client.CreateTeam(ctx, releaseID, req)
	if err != nil {
		return nil, err
	}

	if s.registrar != nil {
		s.registrar.AddTeamMembership(created.ID)
	}

	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			teams := make([]portal.Team, len(r.Teams), len(r.Teams)+1)
			copy(teams, r.Teams)
			r.Teams = append(teams, *created)
			return r
		})
	})
	return created, nil
}

func (s *Store) UpdateTeam(ctx context.Context, releaseID, teamID string, req portal.UpdateTeamRequest) (*portal.Team, error) {
	updated, err := s.client.UpdateTeam(ctx, releaseID, teamID, req)
	if err != nil {
		return nil, err
	}
	s.patchTeamScalars(releaseID, updated)
	return updated, nil
}

func (s *Store) DeleteTeam(ctx context.Context, releaseID, teamID string) error {
	if err := s.client.DeleteTeam(ctx, releaseID, teamID); err != nil {
		return err
	}
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			teams := make([]portal.Team, 0, len(r.Teams))
			for _, t := range r.Teams {
				if t.ID != teamID {
					teams = append(teams, t)
				}
			}
			r.Teams = teams
			return r
		})
	})
	return nil
}

func (s *Store) SetTeamQASignOff(ctx context.Context, releaseID, teamID string, status portal.SignOffStatus) (*portal.Team, error) {
	updated, err := s.client.UpdateTeamQASignOff(ctx, releaseID, teamID, status)
	if err != nil {
		return nil, err
	}
	s.patchTeamScalars(releaseID, updated)
	return updated, nil
}

func (s *Store) SetTeamAppOwnerSignOff(ctx context.Context, releaseID, teamID string, status portal.SignOffStatus) (*portal.Team, error) {
	updated, err := s.client.UpdateTeamAppOwnerSignOff(ctx, releaseID, teamID, status)
	if err != nil {
		return nil, err
	}
	s.patchTeamScalars(releaseID, updated)
	return updated, nil
}

func (s *Store) CreateComponent(ctx context.Context, releaseID, teamID string, req portal.CreateComponentRequest) (*portal.Component, error) {
	created, err := s.client.CreateComponent(ctx, releaseID, teamID, req)
	if err != nil {
		return nil, err
	}
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			return patchTeam(r, teamID, func(t portal.Team) portal.Team {
				components := make([]portal.Component, len(t.Components), len(t.Components)+1)
				copy(components, t.Components)
				t.Components = append(components, *created)
				return t
			})
		})
	})
	return created, nil
}

func (s *Store) UpdateComponent(ctx context.Context, releaseID, teamID, componentID string, req portal.UpdateComponentRequest) (*portal.Component, error) {
	updated, err := s.client.UpdateComponent(ctx, releaseID, teamID, componentID, req)
	if err != nil {
		return nil, err
	}
	s.replaceComponent(releaseID, teamID, updated)
	return updated, nil
}

func (s *Store) DeleteComponent(ctx context.Context, releaseID, teamID, componentID string) error {
	if err := s.client.DeleteComponent(ctx, releaseID, teamID, componentID); err != nil {
		return err
	}
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			return patchTeam(r, teamID, func(t portal.Team) portal.Team {
				components := make([]portal.Component, 0, len(t.Components))
				for _, c := range t.Components {
					if c.ID != componentID {
						components = append(components, c)
					}
				}
				t.Components = components
				return t
			})
		})
	})
	return nil
}

// SetComponentScan updates one of the three scan statuses; the other two
// fields are untouched on the returned component.
func (s *Store) SetComponentScan(ctx context.Context, releaseID, teamID, componentID string, scanType portal.ScanType, status portal.ScanStatus) (*portal.Component, error) {
	updated, err := s.client.UpdateComponentScan(ctx, releaseID, teamID, componentID, scanType, status)
	if err != nil {
		return nil, err
	}
	s.replaceComponent(releaseID, teamID, updated)
	return updated, nil
}

func (s *Store) CreateUserStory(ctx context.Context, releaseID, teamID string, req portal.CreateUserStoryRequest) (*portal.UserStory, error) {
	created, err := s.client.CreateUserStory(ctx, releaseID, teamID, req)
	if err != nil {
		return nil, err
	}
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			return patchTeam(r, teamID, func(t portal.Team) portal.Team {
				stories := make([]portal.UserStory, len(t.UserStories), len(t.UserStories)+1)
				copy(stories, t.UserStories)
				t.UserStories = append(stories, *created)
				return t
			})
		})
	})
	return created, nil
}

func (s *Store) UpdateUserStory(ctx context.Context, releaseID, teamID, storyID string, req portal.UpdateUserStoryRequest) (*portal.UserStory, error) {
	updated, err := s.client.UpdateUserStory(ctx, releaseID, teamID, storyID, req)
	if err != nil {
		return nil, err
	}
	s.replaceUserStory(releaseID, teamID, updated)
	return updated, nil
}

func (s *Store) DeleteUserStory(ctx context.Context, releaseID, teamID, storyID string) error {
	if err := s.client.DeleteUserStory(ctx, releaseID, teamID, storyID); err != nil {
		return err
	}
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			return patchTeam(r, teamID, func(t portal.Team) portal.Team {
				stories := make([]portal.UserStory, 0, len(t.UserStories))
				for _, us := range t.UserStories {
					if us.ID != storyID {
						stories = append(stories, us)
					}
				}
				t.UserStories = stories
				return t
			})
		})
	})
	return nil
}

func (s *Store) SetUserStoryQAStatus(ctx context.Context, releaseID, teamID, storyID string, status portal.QAStatus) (*portal.UserStory, error) {
	updated, err := s.client.UpdateUserStoryQAStatus(ctx, releaseID, teamID, storyID, status)
	if err != nil {
		return nil, err
	}
	s.replaceUserStory(releaseID, teamID, updated)
	return updated, nil
}

// patchTeamScalars merges a team's own fields from the server response while
// keeping the locally held child collections.
func (s *Store) patchTeamScalars(releaseID string, updated *portal.Team) {
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			return patchTeam(r, updated.ID, func(t portal.Team) portal.Team {
				t.Name = updated.Name
				t.TeamDL = updated.TeamDL
				t.ProductOwner = updated.ProductOwner
				t.QASignedOff = updated.QASignedOff
				t.AppOwnerSignedOff = updated.AppOwnerSignedOff
				return t
			})
		})
	})
}

func (s *Store) replaceComponent(releaseID, teamID string, updated *portal.Component) {
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			return patchTeam(r, teamID, func(t portal.Team) portal.Team {
				components := make([]portal.Component, len(t.Components))
				copy(components, t.Components)
				for i := range components {
					if components[i].ID == updated.ID {
						components[i] = *updated
					}
				}
				t.Components = components
				return t
			})
		})
	})
}

func (s *Store) replaceUserStory(releaseID, teamID string, updated *portal.UserStory) {
	s.apply(func(releases []portal.Release) []portal.Release {
		return patchRelease(releases, releaseID, func(r portal.Release) portal.Release {
			return patchTeam(r, teamID, func(t portal.Team) portal.Team {
				stories := make([]portal.UserStory, len(t.UserStories))
				copy(stories, t.UserStories)
				for i := range stories {
					if stories[i].ID == updated.ID {
						stories[i] = *updated
					}
				}
				t.UserStories = stories
				return t
			})
		})
	})
}

// patchRelease rebuilds the release list with the matching release replaced
// by fn's result. A missing ID leaves the contents unchanged.
func patchRelease(releases []portal.Release, releaseID string, fn func(portal.Release) portal.Release) []portal.Release {
	next := make([]portal.Release, len(releases))
	copy(next, releases)
	for i := range next {
		if next[i].ID == releaseID {
			next[i] = fn(next[i])
		}
	}
	return next
}

// patchTeam rebuilds a release's team list with the matching team replaced
// by fn's result.
func patchTeam(release portal.Release, teamID string, fn func(portal.Team) portal.Team) portal.Release {
	teams := make([]portal.Team, len(release.Teams))
	copy(teams, release.Teams)
	for i := range teams {
		if teams[i].ID == teamID {
			teams[i] = fn(teams[i])
		}
	}
	release.Teams = teams
	return release
}
