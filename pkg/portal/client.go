package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

//go:generate mockgen -destination=mocks/http_doer_mock.go -package=mocks github.com/user/release-portal/pkg/portal HTTPDoer

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the release portal REST API. The base URL includes the
// API prefix, e.g. "http://localhost:8080/api".
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

func NewClientWithHTTP(baseURL string, httpClient HTTPDoer) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request and, when out is non-nil, decodes the JSON response
// into it. A nil response body is tolerated for 204 replies.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("portal API error: %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func (c *Client) ListReleases(ctx context.Context) ([]Release, error) {
	var releases []Release
	if err := c.do(ctx, http.MethodGet, "/releases", nil, &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

// GetRelease returns nil without error when the release does not exist.
func (c *Client) GetRelease(ctx context.Context, releaseID string) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/releases/"+releaseID, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal API error: %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &release, nil
}

func (c *Client) CreateRelease(ctx context.Context, req CreateReleaseRequest) (*Release, error) {
	var release Release
	if err := c.do(ctx, http.MethodPost, "/releases", req, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *Client) UpdateRelease(ctx context.Context, releaseID string, req UpdateReleaseRequest) (*Release, error) {
	var release Release
	if err := c.do(ctx, http.MethodPut, "/releases/"+releaseID, req, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *Client) DeleteRelease(ctx context.Context, releaseID string) error {
	return c.do(ctx, http.MethodDelete, "/releases/"+releaseID, nil, nil)
}

func (c *Client) UpdateOverallSignOff(ctx context.Context, releaseID string, status SignOffStatus) (*Release, error) {
	body := map[string]SignOffStatus{"overallAppOwnerSignedOff": status}
	var release Release
	if err := c.do(ctx, http.MethodPut, "/releases/"+releaseID+"/overall-signoff", body, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *Client) SendApprovalNotification(ctx context.Context, releaseID string) error {
	return c.do(ctx, http.MethodPost, "/releases/"+releaseID+"/notify", map[string]string{}, nil)
}

func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := c.do(ctx, http.MethodGet, "/teams", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (c *Client) CreateTeam(ctx context.Context, releaseID string, req CreateTeamRequest) (*Team, error) {
	var team Team
	if err := c.do(ctx, http.MethodPost, "/releases/"+releaseID+"/teams", req, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (c *Client) UpdateTeam(ctx context.Context, releaseID, teamID string, req UpdateTeamRequest) (*Team, error) {
	var team Team
	if err := c.do(ctx, http.MethodPut, "/releases/"+releaseID+"/teams/"+teamID, req, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (c *Client) DeleteTeam(ctx context.Context, releaseID, teamID string) error {
	return c.do(ctx, http.MethodDelete, "/releases/"+releaseID+"/teams/"+teamID, nil, nil)
}

func (c *Client) UpdateTeamQASignOff(ctx context.Context, releaseID, teamID string, status SignOffStatus) (*Team, error) {
	body := map[string]SignOffStatus{"qaSignedOff": status}
	var team Team
	if err := c.do(ctx, http.MethodPut, "/releases/"+releaseID+"/teams/"+teamID+"/qa-signoff", body, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (c *Client) UpdateTeamAppOwnerSignOff(ctx context.Context, releaseID, teamID string, status SignOffStatus) (*Team, error) {
	body := map[string]SignOffStatus{"appOwnerSignedOff": status}
	var team Team
	if err := c.do(ctx, http.MethodPut, "/releases/"+releaseID+"/teams/"+teamID+"/appowner-signoff", body, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (c *Client) CreateComponent(ctx context.Context, releaseID, teamID string, req CreateComponentRequest) (*Component, error) {
	var component Component
	if err := c.do(ctx, http.MethodPost, "/releases/"+releaseID+"/teams/"+teamID+"/components", req, &component); err != nil {
		return nil, err
	}
	return &component, nil
}

func (c *Client) UpdateComponent(ctx context.Context, releaseID, teamID, componentID string, req UpdateComponentRequest) (*Component, error) {
	var component Component
	if err := c.do(ctx, http.MethodPut, "/releases/"+releaseID+"/teams/"+teamID+"/components/"+componentID, req, &component); err != nil {
		return nil, err
	}
	return &component, nil
}

func (c *Client) DeleteComponent(ctx context.Context, releaseID, teamID, componentID string) error {
	return c.do(ctx, http.MethodDelete, "/releases/"+releaseID+"/teams/"+teamID+"/components/"+componentID, nil, nil)
}

func (c *Client) UpdateComponentScan(ctx context.Context, releaseID, teamID, componentID string, scanType ScanType, status ScanStatus) (*Component, error) {
	body := map[string]string{"scanType": string(scanType), "status": string(status)}
	var component Component
	if err := c.do(ctx, http.MethodPut, "/releases/"+releaseID+"/teams/"+teamID+"/components/"+componentID+"/scan", body, &component); err != nil {
		return nil, err
	}
	return &component, nil
}

func (c *Client) CreateUserStory(ctx context.Context, releaseID, teamID string, req CreateUserStoryRequest) (*UserStory, error) {
	var story UserStory
	if err := c.do(ctx, http.MethodPost, "/releases/"+releaseID+"/teams/"+teamID+"/user-stories", req, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (c *Client) UpdateUserStory(ctx context.Context, releaseID, teamID, storyID string, req UpdateUserStoryRequest) (*UserStory, error) {
	var story UserStory
	if err := c.do(ctx, http.MethodPut, "/releases/"+releaseID+"/teams/"+teamID+"/user-stories/"+storyID, req, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (c *Client) DeleteUserStory(ctx context.Context, releaseID, teamID, storyID string) error {
	return c.do(ctx, http.MethodDelete, "/releases/"+releaseID+"/teams/"+teamID+"/user-stories/"+storyID, nil, nil)
}

func (c *Client) UpdateUserStoryQAStatus(ctx context.Context, releaseID, teamID, storyID string, status QAStatus) (*UserStory, error) {
	body := map[string]QAStatus{"qaStatus": status}
	var story UserStory
	if err := c.do(ctx, http.MethodPut, "/releases/"+releaseID+"/teams/"+teamID+"/user-stories/"+storyID+"/qa-status", body, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
