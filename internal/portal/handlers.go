package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/user/release-portal/internal/logger"
	"github.com/user/release-portal/pkg/portal"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("encoding response")
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrReleaseNotFound),
		errors.Is(err, ErrTeamNotFound),
		errors.Is(err, ErrComponentNotFound),
		errors.Is(err, ErrUserStoryNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (s *Server) broadcast(releaseID, kind string) {
	s.hub.Broadcast(portal.ChangeEvent{ReleaseID: releaseID, Kind: kind})
}

func (s *Server) handleReleases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		releases, err := s.service.ListReleases()
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, releases)
	case http.MethodPost:
		var req portal.CreateReleaseRequest
		if !decodeBody(w, r, &req) {
			return
		}
		release, err := s.service.CreateRelease(req)
		if err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(release.ID, "release-created")
		respondJSON(w, http.StatusCreated, release)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	teams, err := s.service.ListTeams()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

// handleReleaseSubtree routes everything nested under a release ID by
// splitting the remaining path segments.
func (s *Server) handleReleaseSubtree(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/releases/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	releaseID := parts[0]

	switch {
	case len(parts) == 1:
		s.handleRelease(w, r, releaseID)
	case len(parts) == 2 && parts[1] == "overall-signoff":
		s.handleOverallSignOff(w, r, releaseID)
	case len(parts) == 2 && parts[1] == "notify":
		s.handleNotify(w, r, releaseID)
	case len(parts) == 2 && parts[1] == "teams":
		s.handleCreateTeam(w, r, releaseID)
	case len(parts) >= 3 && parts[1] == "teams":
		s.handleTeamSubtree(w, r, releaseID, parts[2], parts[3:])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request, releaseID string) {
	switch r.Method {
	case http.MethodGet:
		release, err := s.service.GetRelease(releaseID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, release)
	case http.MethodPut:
		var req portal.UpdateReleaseRequest
		if !decodeBody(w, r, &req) {
			return
		}
		release, err := s.service.UpdateRelease(releaseID, req)
		if err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "release-updated")
		respondJSON(w, http.StatusOK, release)
	case http.MethodDelete:
		if err := s.service.DeleteRelease(releaseID); err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "release-deleted")
		respondJSON(w, http.StatusNoContent, nil)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleOverallSignOff(w http.ResponseWriter, r *http.Request, releaseID string) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		OverallAppOwnerSignedOff portal.SignOffStatus `json:"overallAppOwnerSignedOff"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	release, err := s.service.UpdateOverallSignOff(releaseID, req.OverallAppOwnerSignedOff)
	if err != nil {
		respondError(w, err)
		return
	}
	s.broadcast(releaseID, "overall-signoff-updated")
	respondJSON(w, http.StatusOK, release)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request, releaseID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	release, err := s.service.GetRelease(releaseID)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.notifier.SendApprovalNotification(r.Context(), *release); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request, releaseID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req portal.CreateTeamRequest
	if !decodeBody(w, r, &req) {
		return
	}

	team, err := s.service.CreateTeam(releaseID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	s.broadcast(releaseID, "team-created")
	respondJSON(w, http.StatusCreated, team)
}

func (s *Server) handleTeamSubtree(w http.ResponseWriter, r *http.Request, releaseID, teamID string, rest []string) {
	switch {
	case len(rest) == 0:
		s.handleTeam(w, r, releaseID, teamID)
	case len(rest) == 1 && rest[0] == "qa-signoff":
		s.handleTeamSignOff(w, r, releaseID, teamID, "qaSignedOff")
	case len(rest) == 1 && rest[0] == "appowner-signoff":
		s.handleTeamSignOff(w, r, releaseID, teamID, "appOwnerSignedOff")
	case rest[0] == "components":
		s.handleComponents(w, r, releaseID, teamID, rest[1:])
	case rest[0] == "user-stories":
		s.handleUserStories(w, r, releaseID, teamID, rest[1:])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request, releaseID, teamID string) {
	switch r.Method {
	case http.MethodPut:
		var req portal.UpdateTeamRequest
		if !decodeBody(w, r, &req) {
			return
		}
		team, err := s.service.UpdateTeam(releaseID, teamID, req)
		if err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "team-updated")
		respondJSON(w, http.StatusOK, team)
	case http.MethodDelete:
		if err := s.service.DeleteTeam(releaseID, teamID); err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "team-deleted")
		respondJSON(w, http.StatusNoContent, nil)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTeamSignOff(w http.ResponseWriter, r *http.Request, releaseID, teamID, field string) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req map[string]portal.SignOffStatus
	if !decodeBody(w, r, &req) {
		return
	}
	status, ok := req[field]
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing " + field})
		return
	}

	var (
		team *portal.Team
		err  error
		kind string
	)
	if field == "qaSignedOff" {
		team, err = s.service.UpdateTeamQASignOff(releaseID, teamID, status)
		kind = "team-qa-signoff-updated"
	} else {
		team, err = s.service.UpdateTeamAppOwnerSignOff(releaseID, teamID, status)
		kind = "team-appowner-signoff-updated"
	}
	if err != nil {
		respondError(w, err)
		return
	}
	s.broadcast(releaseID, kind)
	respondJSON(w, http.StatusOK, team)
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request, releaseID, teamID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodPost:
		var req portal.CreateComponentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		component, err := s.service.CreateComponent(releaseID, teamID, req)
		if err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "component-created")
		respondJSON(w, http.StatusCreated, component)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var req portal.UpdateComponentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		component, err := s.service.UpdateComponent(releaseID, teamID, rest[0], req)
		if err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "component-updated")
		respondJSON(w, http.StatusOK, component)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteComponent(releaseID, teamID, rest[0]); err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "component-deleted")
		respondJSON(w, http.StatusNoContent, nil)
	case len(rest) == 2 && rest[1] == "scan" && r.Method == http.MethodPut:
		var req struct {
			ScanType portal.ScanType   `json:"scanType"`
			Status   portal.ScanStatus `json:"status"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		component, err := s.service.UpdateComponentScan(releaseID, teamID, rest[0], req.ScanType, req.Status)
		if err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "component-scan-updated")
		respondJSON(w, http.StatusOK, component)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleUserStories(w http.ResponseWriter, r *http.Request, releaseID, teamID string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodPost:
		var req portal.CreateUserStoryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		story, err := s.service.CreateUserStory(releaseID, teamID, req)
		if err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "user-story-created")
		respondJSON(w, http.StatusCreated, story)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var req portal.UpdateUserStoryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		story, err := s.service.UpdateUserStory(releaseID, teamID, rest[0], req)
		if err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "user-story-updated")
		respondJSON(w, http.StatusOK, story)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteUserStory(releaseID, teamID, rest[0]); err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "user-story-deleted")
		respondJSON(w, http.StatusNoContent, nil)
	case len(rest) == 2 && rest[1] == "qa-status" && r.Method == http.MethodPut:
		var req struct {
			QAStatus portal.QAStatus `json:"qaStatus"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		story, err := s.service.UpdateUserStoryQAStatus(releaseID, teamID, rest[0], req.QAStatus)
		if err != nil {
			respondError(w, err)
			return
		}
		s.broadcast(releaseID, "user-story-qa-updated")
		respondJSON(w, http.StatusOK, story)
	default:
		http.NotFound(w, r)
	}
}
