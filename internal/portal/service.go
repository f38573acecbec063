package portal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/user/release-portal/internal/database"
	"github.com/user/release-portal/pkg/portal"
)

var (
	ErrReleaseNotFound   = errors.New("release not found")
	ErrTeamNotFound      = errors.New("team not found")
	ErrComponentNotFound = errors.New("component not found")
	ErrUserStoryNotFound = errors.New("user story not found")
)

// Service owns all release state mutations against the database and returns
// wire-format values ready to serialize.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// slugify lowercases a name and joins its words with dashes, for readable
// release and team IDs.
func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func newSluggedID(name string) string {
	return fmt.Sprintf("%s-%d", slugify(name), time.Now().UnixMilli())
}

func (s *Service) ListReleases() ([]portal.Release, error) {
	var releases []database.Release
	err := s.db.
		Preload("Teams.Components").
		Preload("Teams.UserStories").
		Preload("Teams").
		Order("created_at desc").
		Find(&releases).Error
	if err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}

	out := make([]portal.Release, 0, len(releases))
	for _, r := range releases {
		wire, err := toWireRelease(r)
		if err != nil {
			return nil, err
		}
		out = append(out, wire)
	}
	return out, nil
}

func (s *Service) GetRelease(releaseID string) (*portal.Release, error) {
	release, err := s.loadRelease(releaseID)
	if err != nil {
		return nil, err
	}
	wire, err := toWireRelease(*release)
	if err != nil {
		return nil, err
	}
	return &wire, nil
}

// CreateRelease stores the release and adopts any requested pre-existing
// teams by pointing their release foreign key at it.
func (s *Service) CreateRelease(req portal.CreateReleaseRequest) (*portal.Release, error) {
	release := database.Release{
		ID:                       newSluggedID(req.Name),
		Name:                     req.Name,
		Version:                  req.Version,
		ReleaseDate:              req.ReleaseDate,
		Status:                   string(portal.StatusInProgress),
		OverallAppOwnerSignedOff: string(portal.SignOffPending),
		CreatedAt:                time.Now().UnixMilli(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&release).Error; err != nil {
			return fmt.Errorf("creating release: %w", err)
		}
		if len(req.TeamIDs) > 0 {
			err := tx.Model(&database.Team{}).
				Where("id IN ?", req.TeamIDs).
				Update("release_id", release.ID).Error
			if err != nil {
				return fmt.Errorf("assigning teams: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRelease(release.ID)
}

func (s *Service) UpdateRelease(releaseID string, req portal.UpdateReleaseRequest) (*portal.Release, error) {
	release, err := s.loadRelease(releaseID)
	if err != nil {
		return nil, err
	}

	release.Name = req.Name
	release.Version = req.Version
	release.ReleaseDate = req.ReleaseDate
	if err := s.db.Save(release).Error; err != nil {
		return nil, fmt.Errorf("updating release: %w", err)
	}

	return s.GetRelease(releaseID)
}

func (s *Service) DeleteRelease(releaseID string) error {
	release, err := s.loadRelease(releaseID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, team := range release.Teams {
			if err := deleteTeamRows(tx, team.ID); err != nil {
				return err
			}
		}
		if err := tx.Delete(&database.Release{}, "id = ?", releaseID).Error; err != nil {
			return fmt.Errorf("deleting release: %w", err)
		}
		return nil
	})
}

// UpdateOverallSignOff sets the release-level approval flag. The lifecycle
// status is not touched; a Blocked release stays Blocked through sign-off
// toggles.
func (s *Service) UpdateOverallSignOff(releaseID string, status portal.SignOffStatus) (*portal.Release, error) {
	release, err := s.loadRelease(releaseID)
	if err != nil {
		return nil, err
	}

	release.OverallAppOwnerSignedOff = string(status)
	if err := s.db.Save(release).Error; err != nil {
		return nil, fmt.Errorf("updating overall sign-off: %w", err)
	}

	return s.GetRelease(releaseID)
}

func (s *Service) ListTeams() ([]portal.Team, error) {
	var teams []database.Team
	err := s.db.
		Preload("Components").
		Preload("UserStories").
		Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}

	out := make([]portal.Team, 0, len(teams))
	for _, t := range teams {
		wire, err := toWireTeam(t)
		if err != nil {
			return nil, err
		}
		out = append(out, wire)
	}
	return out, nil
}

func (s *Service) CreateTeam(releaseID string, req portal.CreateTeamRequest) (*portal.Team, error) {
	if _, err := s.loadRelease(releaseID); err != nil {
		return nil, err
	}

	team := database.Team{
		ID:                newSluggedID(req.Name),
		ReleaseID:         &releaseID,
		Name:              req.Name,
		TeamDL:            req.TeamDL,
		ProductOwner:      req.ProductOwner,
		QASignedOff:       string(portal.SignOffPending),
		AppOwnerSignedOff: string(portal.SignOffPending),
	}
	if err := s.db.Create(&team).Error; err != nil {
		return nil, fmt.Errorf("creating team: %w", err)
	}

	return s.getTeam(releaseID, team.ID)
}

func (s *Service) UpdateTeam(releaseID, teamID string, req portal.UpdateTeamRequest) (*portal.Team, error) {
	team, err := s.loadTeam(releaseID, teamID)
	if err != nil {
		return nil, err
	}

	team.Name = req.Name
	team.TeamDL = req.TeamDL
	team.ProductOwner = req.ProductOwner
	if err := s.db.Save(team).Error; err != nil {
		return nil, fmt.Errorf("updating team: %w", err)
	}

	return s.getTeam(releaseID, teamID)
}

func (s *Service) DeleteTeam(releaseID, teamID string) error {
	if _, err := s.loadTeam(releaseID, teamID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return deleteTeamRows(tx, teamID)
	})
}

func (s *Service) UpdateTeamQASignOff(releaseID, teamID string, status portal.SignOffStatus) (*portal.Team, error) {
	team, err := s.loadTeam(releaseID, teamID)
	if err != nil {
		return nil, err
	}

	team.QASignedOff = string(status)
	if err := s.db.Save(team).Error; err != nil {
		return nil, fmt.Errorf("updating qa sign-off: %w", err)
	}

	return s.getTeam(releaseID, teamID)
}

func (s *Service) UpdateTeamAppOwnerSignOff(releaseID, teamID string, status portal.SignOffStatus) (*portal.Team, error) {
	team, err := s.loadTeam(releaseID, teamID)
	if err != nil {
		return nil, err
	}

	team.AppOwnerSignedOff = string(status)
	if err := s.db.Save(team).Error; err != nil {
		return nil, fmt.Errorf("updating app owner sign-off: %w", err)
	}

	return s.getTeam(releaseID, teamID)
}

func (s *Service) CreateComponent(releaseID, teamID string, req portal.CreateComponentRequest) (*portal.Component, error) {
	if _, err := s.loadTeam(releaseID, teamID); err != nil {
		return nil, err
	}

	component := database.Component{
		ID:        teamID + "-component-" + uuid.NewString(),
		TeamID:    teamID,
		Name:      req.Name,
		Version:   req.Version,
		SonarQube: string(portal.ScanPending),
		NexusIQ:   string(portal.ScanPending),
		Checkmarx: string(portal.ScanPending),
	}
	if err := s.db.Create(&component).Error; err != nil {
		return nil, fmt.Errorf("creating component: %w", err)
	}

	wire := toWireComponent(component)
	return &wire, nil
}

func (s *Service) UpdateComponent(releaseID, teamID, componentID string, req portal.UpdateComponentRequest) (*portal.Component, error) {
	component, err := s.loadComponent(releaseID, teamID, componentID)
	if err != nil {
		return nil, err
	}

	component.Name = req.Name
	component.Version = req.Version
	if err := s.db.Save(component).Error; err != nil {
		return nil, fmt.Errorf("updating component: %w", err)
	}

	wire := toWireComponent(*component)
	return &wire, nil
}

// DeleteComponent removes the component and detaches it from every user
// story that references it.
func (s *Service) DeleteComponent(releaseID, teamID, componentID string) error {
	if _, err := s.loadComponent(releaseID, teamID, componentID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var stories []database.UserStory
		if err := tx.Where("team_id = ?", teamID).Find(&stories).Error; err != nil {
			return fmt.Errorf("loading user stories: %w", err)
		}

		for i := range stories {
			ids, err := stories[i].GetComponentIDs()
			if err != nil {
				return err
			}
			kept := make([]string, 0, len(ids))
			for _, id := range ids {
				if id != componentID {
					kept = append(kept, id)
				}
			}
			if len(kept) == len(ids) {
				continue
			}
			if err := stories[i].SetComponentIDs(kept); err != nil {
				return err
			}
			if err := tx.Save(&stories[i]).Error; err != nil {
				return fmt.Errorf("detaching component from user story: %w", err)
			}
		}

		if err := tx.Delete(&database.Component{}, "id = ?", componentID).Error; err != nil {
			return fmt.Errorf("deleting component: %w", err)
		}
		return nil
	})
}

// UpdateComponentScan records a scan result. An unknown scan type changes
// nothing; the component is returned as is.
func (s *Service) UpdateComponentScan(releaseID, teamID, componentID string, scanType portal.ScanType, status portal.ScanStatus) (*portal.Component, error) {
	component, err := s.loadComponent(releaseID, teamID, componentID)
	if err != nil {
		return nil, err
	}

	switch scanType {
	case portal.ScanSonarQube:
		component.SonarQube = string(status)
	case portal.ScanNexusIQ:
		component.NexusIQ = string(status)
	case portal.ScanCheckmarx:
		component.Checkmarx = string(status)
	}

	if err := s.db.Save(component).Error; err != nil {
		return nil, fmt.Errorf("updating component scan: %w", err)
	}

	wire := toWireComponent(*component)
	return &wire, nil
}

func (s *Service) CreateUserStory(releaseID, teamID string, req portal.CreateUserStoryRequest) (*portal.UserStory, error) {
	if _, err := s.loadTeam(releaseID, teamID); err != nil {
		return nil, err
	}

	story := database.UserStory{
		ID:          "US-" + uuid.NewString(),
		TeamID:      teamID,
		Description: req.Description,
		QAStatus:    string(portal.QAPending),
	}
	if err := story.SetComponentIDs(req.ComponentIDs); err != nil {
		return nil, err
	}
	if err := s.db.Create(&story).Error; err != nil {
		return nil, fmt.Errorf("creating user story: %w", err)
	}

	return s.wireStoryForTeam(teamID, story)
}

func (s *Service) UpdateUserStory(releaseID, teamID, storyID string, req portal.UpdateUserStoryRequest) (*portal.UserStory, error) {
	story, err := s.loadUserStory(releaseID, teamID, storyID)
	if err != nil {
		return nil, err
	}

	story.Description = req.Description
	if err := s.db.Save(story).Error; err != nil {
		return nil, fmt.Errorf("updating user story: %w", err)
	}

	return s.wireStoryForTeam(teamID, *story)
}

func (s *Service) DeleteUserStory(releaseID, teamID, storyID string) error {
	if _, err := s.loadUserStory(releaseID, teamID, storyID); err != nil {
		return err
	}

	if err := s.db.Delete(&database.UserStory{}, "id = ?", storyID).Error; err != nil {
		return fmt.Errorf("deleting user story: %w", err)
	}
	return nil
}

func (s *Service) UpdateUserStoryQAStatus(releaseID, teamID, storyID string, status portal.QAStatus) (*portal.UserStory, error) {
	story, err := s.loadUserStory(releaseID, teamID, storyID)
	if err != nil {
		return nil, err
	}

	story.QAStatus = string(status)
	if err := s.db.Save(story).Error; err != nil {
		return nil, fmt.Errorf("updating qa status: %w", err)
	}

	return s.wireStoryForTeam(teamID, *story)
}

func (s *Service) loadRelease(releaseID string) (*database.Release, error) {
	var release database.Release
	err := s.db.
		Preload("Teams.Components").
		Preload("Teams.UserStories").
		Preload("Teams").
		First(&release, "id = ?", releaseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReleaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading release: %w", err)
	}
	return &release, nil
}

func (s *Service) loadTeam(releaseID, teamID string) (*database.Team, error) {
	if _, err := s.loadRelease(releaseID); err != nil {
		return nil, err
	}

	var team database.Team
	err := s.db.First(&team, "id = ? AND release_id = ?", teamID, releaseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading team: %w", err)
	}
	return &team, nil
}

func (s *Service) loadComponent(releaseID, teamID, componentID string) (*database.Component, error) {
	if _, err := s.loadTeam(releaseID, teamID); err != nil {
		return nil, err
	}

	var component database.Component
	err := s.db.First(&component, "id = ? AND team_id = ?", componentID, teamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrComponentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading component: %w", err)
	}
	return &component, nil
}

func (s *Service) loadUserStory(releaseID, teamID, storyID string) (*database.UserStory, error) {
	if _, err := s.loadTeam(releaseID, teamID); err != nil {
		return nil, err
	}

	var story database.UserStory
	err := s.db.First(&story, "id = ? AND team_id = ?", storyID, teamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserStoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user story: %w", err)
	}
	return &story, nil
}

func (s *Service) getTeam(releaseID, teamID string) (*portal.Team, error) {
	if _, err := s.loadTeam(releaseID, teamID); err != nil {
		return nil, err
	}

	var team database.Team
	err := s.db.
		Preload("Components").
		Preload("UserStories").
		First(&team, "id = ?", teamID).Error
	if err != nil {
		return nil, fmt.Errorf("loading team: %w", err)
	}

	wire, err := toWireTeam(team)
	if err != nil {
		return nil, err
	}
	return &wire, nil
}

func (s *Service) wireStoryForTeam(teamID string, story database.UserStory) (*portal.UserStory, error) {
	var components []database.Component
	if err := s.db.Where("team_id = ?", teamID).Find(&components).Error; err != nil {
		return nil, fmt.Errorf("loading components: %w", err)
	}

	wire, err := toWireUserStory(story, components)
	if err != nil {
		return nil, err
	}
	return &wire, nil
}

func deleteTeamRows(tx *gorm.DB, teamID string) error {
	if err := tx.Delete(&database.Component{}, "team_id = ?", teamID).Error; err != nil {
		return fmt.Errorf("deleting components: %w", err)
	}
	if err := tx.Delete(&database.UserStory{}, "team_id = ?", teamID).Error; err != nil {
		return fmt.Errorf("deleting user stories: %w", err)
	}
	if err := tx.Delete(&database.Team{}, "id = ?", teamID).Error; err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	return nil
}

func toWireRelease(r database.Release) (portal.Release, error) {
	teams := make([]portal.Team, 0, len(r.Teams))
	for _, t := range r.Teams {
		wire, err := toWireTeam(t)
		if err != nil {
			return portal.Release{}, err
		}
		teams = append(teams, wire)
	}
	return portal.Release{
		ID:                       r.ID,
		Name:                     r.Name,
		Version:                  r.Version,
		ReleaseDate:              r.ReleaseDate,
		Status:                   portal.ReleaseStatus(r.Status),
		OverallAppOwnerSignedOff: portal.SignOffStatus(r.OverallAppOwnerSignedOff),
		Teams:                    teams,
	}, nil
}

func toWireTeam(t database.Team) (portal.Team, error) {
	components := make([]portal.Component, 0, len(t.Components))
	for _, c := range t.Components {
		components = append(components, toWireComponent(c))
	}

	stories := make([]portal.UserStory, 0, len(t.UserStories))
	for _, s := range t.UserStories {
		wire, err := toWireUserStory(s, t.Components)
		if err != nil {
			return portal.Team{}, err
		}
		stories = append(stories, wire)
	}

	return portal.Team{
		ID:                t.ID,
		Name:              t.Name,
		TeamDL:            t.TeamDL,
		ProductOwner:      t.ProductOwner,
		QASignedOff:       portal.SignOffStatus(t.QASignedOff),
		AppOwnerSignedOff: portal.SignOffStatus(t.AppOwnerSignedOff),
		Components:        components,
		UserStories:       stories,
	}, nil
}

func toWireComponent(c database.Component) portal.Component {
	return portal.Component{
		ID:        c.ID,
		Name:      c.Name,
		Version:   c.Version,
		SonarQube: portal.ScanStatus(c.SonarQube),
		NexusIQ:   portal.ScanStatus(c.NexusIQ),
		Checkmarx: portal.ScanStatus(c.Checkmarx),
	}
}

// toWireUserStory resolves the story's component ID list against the owning
// team's components; IDs of since-deleted components are skipped.
func toWireUserStory(s database.UserStory, teamComponents []database.Component) (portal.UserStory, error) {
	ids, err := s.GetComponentIDs()
	if err != nil {
		return portal.UserStory{}, err
	}

	byID := make(map[string]database.Component, len(teamComponents))
	for _, c := range teamComponents {
		byID[c.ID] = c
	}

	components := make([]portal.Component, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue
		}
		components = append(components, toWireComponent(c))
	}

	return portal.UserStory{
		ID:          s.ID,
		Description: s.Description,
		QAStatus:    portal.QAStatus(s.QAStatus),
		Components:  components,
	}, nil
}
