package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/user/release-portal/pkg/portal"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(portal.NewClient(srv.URL))
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func TestNewSeedsSampleData(t *testing.T) {
	s := New(portal.NewClient("http://unused"))

	releases := s.Releases()
	require.Len(t, releases, 2)
	require.Equal(t, "sample-q1-2024-aurora", releases[0].ID)
	require.Equal(t, "sample-q4-2023-nebula", releases[1].ID)
}

func TestLoadReplacesSnapshot(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/releases", r.URL.Path)
		writeJSON(t, w, []portal.Release{{ID: "aurora-1700000000000", Name: "Aurora", Status: portal.StatusInProgress}})
	})

	require.NoError(t, s.Load(context.Background()))

	releases := s.Releases()
	require.Len(t, releases, 1)
	require.Equal(t, "aurora-1700000000000", releases[0].ID)
}

func TestLoadFailureKeepsSnapshot(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	require.Error(t, s.Load(context.Background()))
	require.Len(t, s.Releases(), 2)
}

func TestCreateReleasePrepends(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		writeJSON(t, w, portal.Release{ID: "nova-1700000000000", Name: "Nova", Status: portal.StatusInProgress})
	})

	created, err := s.CreateRelease(context.Background(), portal.CreateReleaseRequest{Name: "Nova", Version: "1.0.0"})
	require.NoError(t, err)
	require.Equal(t, "nova-1700000000000", created.ID)

	releases := s.Releases()
	require.Len(t, releases, 3)
	require.Equal(t, "nova-1700000000000", releases[0].ID)
}

func TestUpdateReleaseMergesScalarsKeepsTeams(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		// The server response carries no team data; local children must
		// survive the merge.
		writeJSON(t, w, portal.Release{
			ID:      "sample-q1-2024-aurora",
			Name:    "Project Aurora",
			Version: "2.2.0",
		})
	})

	_, err := s.UpdateRelease(context.Background(), "sample-q1-2024-aurora", portal.UpdateReleaseRequest{
		Name:    "Project Aurora",
		Version: "2.2.0",
	})
	require.NoError(t, err)

	release, ok := s.Get("sample-q1-2024-aurora")
	require.True(t, ok)
	require.Equal(t, "Project Aurora", release.Name)
	require.Equal(t, "2.2.0", release.Version)
	require.Len(t, release.Teams, 2)
}

func TestMutationFailureLeavesSnapshot(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	before := s.Releases()
	_, err := s.UpdateRelease(context.Background(), "sample-q1-2024-aurora", portal.UpdateReleaseRequest{Name: "x"})
	require.Error(t, err)
	require.Equal(t, before, s.Releases())
}

func TestDeleteReleaseRemovesFromSnapshot(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, s.DeleteRelease(context.Background(), "sample-q1-2024-aurora"))

	releases := s.Releases()
	require.Len(t, releases, 1)
	require.Equal(t, "sample-q4-2023-nebula", releases[0].ID)
}

func TestSetOverallSignOffCompletedNotifies(t *testing.T) {
	var notifies int64
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/releases/sample-q1-2024-aurora/overall-signoff":
			writeJSON(t, w, portal.Release{
				ID:                       "sample-q1-2024-aurora",
				Status:                   portal.StatusInProgress,
				OverallAppOwnerSignedOff: portal.SignOffCompleted,
			})
		case r.Method == http.MethodPost && r.URL.Path == "/releases/sample-q1-2024-aurora/notify":
			atomic.AddInt64(&notifies, 1)
			writeJSON(t, w, map[string]string{"status": "sent"})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	_, err := s.SetOverallSignOff(context.Background(), "sample-q1-2024-aurora", portal.SignOffCompleted)
	require.NoError(t, err)

	release, ok := s.Get("sample-q1-2024-aurora")
	require.True(t, ok)
	require.Equal(t, portal.SignOffCompleted, release.OverallAppOwnerSignedOff)
	// The lifecycle status and child collections survive the sign-off merge.
	require.Equal(t, portal.StatusInProgress, release.Status)
	require.Len(t, release.Teams, 2)

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&notifies) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSetOverallSignOffToggleKeepsBlockedStatus(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/releases":
			writeJSON(t, w, []portal.Release{{
				ID:     "winter-hold-1700000000000",
				Name:   "Winter Hold",
				Status: portal.StatusBlocked,
			}})
		case "/releases/winter-hold-1700000000000/overall-signoff":
			var body map[string]portal.SignOffStatus
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(t, w, portal.Release{
				ID:                       "winter-hold-1700000000000",
				Name:                     "Winter Hold",
				Status:                   portal.StatusBlocked,
				OverallAppOwnerSignedOff: body["overallAppOwnerSignedOff"],
			})
		case "/releases/winter-hold-1700000000000/notify":
			writeJSON(t, w, map[string]string{"status": "sent"})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	require.NoError(t, s.Load(context.Background()))

	_, err := s.SetOverallSignOff(context.Background(), "winter-hold-1700000000000", portal.SignOffCompleted)
	require.NoError(t, err)
	_, err = s.SetOverallSignOff(context.Background(), "winter-hold-1700000000000", portal.SignOffPending)
	require.NoError(t, err)

	release, ok := s.Get("winter-hold-1700000000000")
	require.True(t, ok)
	require.Equal(t, portal.StatusBlocked, release.Status)
	require.Equal(t, portal.SignOffPending, release.OverallAppOwnerSignedOff)
}

func TestSetOverallSignOffPendingDoesNotNotify(t *testing.T) {
	var notifies int64
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/releases/sample-q1-2024-aurora/notify" {
			atomic.AddInt64(&notifies, 1)
		}
		writeJSON(t, w, portal.Release{
			ID:                       "sample-q1-2024-aurora",
			Status:                   portal.StatusInProgress,
			OverallAppOwnerSignedOff: portal.SignOffPending,
		})
	})

	_, err := s.SetOverallSignOff(context.Background(), "sample-q1-2024-aurora", portal.SignOffPending)
	require.NoError(t, err)
	require.Equal(t, int64(0), atomic.LoadInt64(&notifies))
}

func TestSetTeamQASignOffKeepsChildrenAndSiblings(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, portal.Team{
			ID:          "sample-alpha-squad",
			Name:        "Alpha Squad",
			QASignedOff: portal.SignOffCompleted,
		})
	})

	before := s.Releases()

	_, err := s.SetTeamQASignOff(context.Background(), "sample-q1-2024-aurora", "sample-alpha-squad", portal.SignOffCompleted)
	require.NoError(t, err)

	after := s.Releases()

	team := after[0].Teams[0]
	require.Equal(t, portal.SignOffCompleted, team.QASignedOff)
	require.Len(t, team.Components, 2)
	require.Len(t, team.UserStories, 2)

	// The untouched sibling team and the other release still share backing
	// storage with the previous snapshot.
	require.Equal(t, before[0].Teams[1], after[0].Teams[1])
	require.Equal(t, before[1], after[1])
	require.Same(t, &before[1].Teams[0].Components[0], &after[1].Teams[0].Components[0])
}

func TestPatchUnknownReleaseIsNoOp(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, portal.Team{ID: "ghost-team", QASignedOff: portal.SignOffCompleted})
	})

	before := s.Releases()
	_, err := s.SetTeamQASignOff(context.Background(), "ghost-release", "ghost-team", portal.SignOffCompleted)
	require.NoError(t, err)
	require.Equal(t, before, s.Releases())
}

type recordingRegistrar struct {
	teamIDs []string
}

func (r *recordingRegistrar) AddTeamMembership(teamID string) {
	r.teamIDs = append(r.teamIDs, teamID)
}

func TestCreateTeamRegistersMembership(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		writeJSON(t, w, portal.Team{
			ID:   "echo-unit-1700000000000",
			Name: "Echo Unit",
		})
	})

	registrar := &recordingRegistrar{}
	s.SetTeamRegistrar(registrar)

	created, err := s.CreateTeam(context.Background(), "sample-q1-2024-aurora", portal.CreateTeamRequest{Name: "Echo Unit"})
	require.NoError(t, err)
	require.Equal(t, []string{"echo-unit-1700000000000"}, registrar.teamIDs)

	release, ok := s.Get("sample-q1-2024-aurora")
	require.True(t, ok)
	require.Len(t, release.Teams, 3)
	require.Equal(t, created.ID, release.Teams[2].ID)
}

func TestDeleteComponentRemovesOnlyTarget(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	err := s.DeleteComponent(context.Background(), "sample-q1-2024-aurora", "sample-alpha-squad", "sample-auth-service")
	require.NoError(t, err)

	release, _ := s.Get("sample-q1-2024-aurora")
	require.Len(t, release.Teams[0].Components, 1)
	require.Equal(t, "sample-ui-gateway", release.Teams[0].Components[0].ID)
}

func TestSetComponentScanIsolation(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, portal.Component{
			ID:        "sample-ui-gateway",
			Name:      "UI Gateway",
			Version:   "2.0.1",
			SonarQube: portal.ScanPassed,
			NexusIQ:   portal.ScanPassed,
			Checkmarx: portal.ScanPending,
		})
	})

	_, err := s.SetComponentScan(context.Background(), "sample-q1-2024-aurora", "sample-alpha-squad", "sample-ui-gateway", portal.ScanSonarQube, portal.ScanPassed)
	require.NoError(t, err)

	release, _ := s.Get("sample-q1-2024-aurora")
	var gateway, auth portal.Component
	for _, c := range release.Teams[0].Components {
		switch c.ID {
		case "sample-ui-gateway":
			gateway = c
		case "sample-auth-service":
			auth = c
		}
	}
	require.Equal(t, portal.ScanPassed, gateway.SonarQube)
	require.Equal(t, portal.ScanPending, gateway.Checkmarx)
	require.Equal(t, portal.ScanPassed, auth.SonarQube)
}

func TestSubscribeDeliversCurrentThenUpdates(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []portal.Release{{ID: "r1", Status: portal.StatusInProgress}})
	})

	var snapshots [][]portal.Release
	cancel := s.Subscribe(func(releases []portal.Release) {
		snapshots = append(snapshots, releases)
	})

	require.Len(t, snapshots, 1)
	require.Len(t, snapshots[0], 2)

	require.NoError(t, s.Load(context.Background()))
	require.Len(t, snapshots, 2)
	require.Len(t, snapshots[1], 1)

	cancel()
	require.NoError(t, s.Load(context.Background()))
	require.Len(t, snapshots, 2)
}
