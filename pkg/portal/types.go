package portal

// ReleaseStatus is the lifecycle state of a release.
type ReleaseStatus string

const (
	StatusInProgress ReleaseStatus = "In Progress"
	StatusCompleted  ReleaseStatus = "Completed"
	StatusBlocked    ReleaseStatus = "Blocked"
)

// SignOffStatus is a binary approval flag at team or release granularity.
type SignOffStatus string

const (
	SignOffPending   SignOffStatus = "Pending"
	SignOffCompleted SignOffStatus = "Completed"
)

// ScanStatus is the result of an automated code-quality or security scan.
type ScanStatus string

const (
	ScanPending ScanStatus = "Pending"
	ScanPassed  ScanStatus = "Passed"
	ScanFailed  ScanStatus = "Failed"
)

// ScanType names one of the three scans tracked per component.
type ScanType string

const (
	ScanSonarQube ScanType = "sonarQube"
	ScanNexusIQ   ScanType = "nexusIq"
	ScanCheckmarx ScanType = "checkmarx"
)

// QAStatus is the QA verification state of a user story.
type QAStatus string

const (
	QAPending    QAStatus = "Pending"
	QAInProgress QAStatus = "In Progress"
	QAPassed     QAStatus = "Passed"
	QAFailed     QAStatus = "Failed"
)

type Component struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Version   string     `json:"version"`
	SonarQube ScanStatus `json:"sonarQube"`
	NexusIQ   ScanStatus `json:"nexusIq"`
	Checkmarx ScanStatus `json:"checkmarx"`
}

// UserStory carries denormalized copies of the components it touches,
// not references into the owning team's component list.
type UserStory struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	QAStatus    QAStatus    `json:"qaStatus"`
	Components  []Component `json:"components"`
}

type Team struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	TeamDL            string        `json:"teamDl"`
	ProductOwner      string        `json:"productOwner"`
	QASignedOff       SignOffStatus `json:"qaSignedOff"`
	AppOwnerSignedOff SignOffStatus `json:"appOwnerSignedOff"`
	Components        []Component   `json:"components"`
	UserStories       []UserStory   `json:"userStories"`
}

type Release struct {
	ID                       string        `json:"id"`
	Name                     string        `json:"name"`
	Version                  string        `json:"version"`
	ReleaseDate              string        `json:"releaseDate"`
	Status                   ReleaseStatus `json:"status"`
	OverallAppOwnerSignedOff SignOffStatus `json:"overallAppOwnerSignedOff"`
	Teams                    []Team        `json:"teams"`
}

type CreateReleaseRequest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	ReleaseDate string   `json:"releaseDate"`
	TeamIDs     []string `json:"teamIds"`
}

type UpdateReleaseRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	ReleaseDate string `json:"releaseDate"`
}

type CreateTeamRequest struct {
	Name         string `json:"name"`
	TeamDL       string `json:"teamDl"`
	ProductOwner string `json:"productOwner"`
}

type UpdateTeamRequest struct {
	Name         string `json:"name"`
	TeamDL       string `json:"teamDl"`
	ProductOwner string `json:"productOwner"`
}

type CreateComponentRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type UpdateComponentRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type CreateUserStoryRequest struct {
	Description  string   `json:"description"`
	ComponentIDs []string `json:"componentIds"`
}

type UpdateUserStoryRequest struct {
	Description string `json:"description"`
}

// ChangeEvent is broadcast on the server's event feed after every
// successful mutation.
type ChangeEvent struct {
	ReleaseID string `json:"releaseId"`
	Kind      string `json:"kind"`
}
