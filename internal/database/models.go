package database

import (
	"encoding/json"
	"fmt"
)

type Release struct {
	ID                       string `gorm:"primaryKey"`
	Name                     string `gorm:"not null"`
	Version                  string `gorm:"not null"`
	ReleaseDate              string
	Status                   string `gorm:"default:In Progress"`
	OverallAppOwnerSignedOff string `gorm:"default:Pending"`
	Teams                    []Team `gorm:"foreignKey:ReleaseID"`
	CreatedAt                int64  `gorm:"not null"`
}

// Team.ReleaseID is nullable: teams can exist unassigned and be adopted by
// a release at creation time.
type Team struct {
	ID                string  `gorm:"primaryKey"`
	ReleaseID         *string `gorm:"index"`
	Name              string  `gorm:"not null"`
	TeamDL            string
	ProductOwner      string
	QASignedOff       string      `gorm:"default:Pending"`
	AppOwnerSignedOff string      `gorm:"default:Pending"`
	Components        []Component `gorm:"foreignKey:TeamID"`
	UserStories       []UserStory `gorm:"foreignKey:TeamID"`
}

type Component struct {
	ID        string `gorm:"primaryKey"`
	TeamID    string `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	Version   string
	SonarQube string `gorm:"default:Pending"`
	NexusIQ   string `gorm:"default:Pending"`
	Checkmarx string `gorm:"default:Pending"`
}

// UserStory keeps the IDs of the components it touches as a JSON array in a
// text column; responses denormalize them into full component copies.
type UserStory struct {
	ID           string `gorm:"primaryKey"`
	TeamID       string `gorm:"not null;index"`
	Description  string
	QAStatus     string `gorm:"default:Pending"`
	ComponentIDs string
}

func (s *UserStory) GetComponentIDs() ([]string, error) {
	if s.ComponentIDs == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(s.ComponentIDs), &ids); err != nil {
		return nil, fmt.Errorf("unmarshaling component ids: %w", err)
	}
	return ids, nil
}

func (s *UserStory) SetComponentIDs(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshaling component ids: %w", err)
	}
	s.ComponentIDs = string(data)
	return nil
}
