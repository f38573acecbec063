package portal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/user/release-portal/pkg/portal/mocks"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestListReleases(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodGet, req.Method)
		require.Equal(t, "http://portal/api/releases", req.URL.String())
		return jsonResponse(http.StatusOK, `[{"id":"q1-aurora-1700000000000","name":"Aurora","version":"2.1.0","teams":[]}]`), nil
	})

	client := NewClientWithHTTP("http://portal/api", doer)

	releases, err := client.ListReleases(context.Background())
	require.NoError(t, err)
	require.Len(t, releases, 1)
	require.Equal(t, "Aurora", releases[0].Name)
}

func TestGetReleaseNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusNotFound, `{"error":"release not found"}`), nil)

	client := NewClientWithHTTP("http://portal/api", doer)

	release, err := client.GetRelease(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, release)
}

func TestCreateReleaseSendsBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, "http://portal/api/releases", req.URL.String())
		require.Equal(t, "application/json", req.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		require.Equal(t, "Aurora", body["name"])
		require.Equal(t, []interface{}{"alpha-squad"}, body["teamIds"])

		return jsonResponse(http.StatusCreated, `{"id":"aurora-1700000000000","name":"Aurora","version":"2.1.0","teams":[]}`), nil
	})

	client := NewClientWithHTTP("http://portal/api", doer)

	release, err := client.CreateRelease(context.Background(), CreateReleaseRequest{
		Name:        "Aurora",
		Version:     "2.1.0",
		ReleaseDate: "2024-03-30",
		TeamIDs:     []string{"alpha-squad"},
	})
	require.NoError(t, err)
	require.Equal(t, "aurora-1700000000000", release.ID)
}

func TestUpdateOverallSignOffBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPut, req.Method)
		require.Equal(t, "http://portal/api/releases/r1/overall-signoff", req.URL.String())

		var body map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		require.Equal(t, "Completed", body["overallAppOwnerSignedOff"])

		return jsonResponse(http.StatusOK, `{"id":"r1","status":"Blocked","overallAppOwnerSignedOff":"Completed","teams":[]}`), nil
	})

	client := NewClientWithHTTP("http://portal/api", doer)

	release, err := client.UpdateOverallSignOff(context.Background(), "r1", SignOffCompleted)
	require.NoError(t, err)
	require.Equal(t, SignOffCompleted, release.OverallAppOwnerSignedOff)
	require.Equal(t, StatusBlocked, release.Status)
}

func TestUpdateComponentScanBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPut, req.Method)
		require.Equal(t, "http://portal/api/releases/r1/teams/t1/components/c1/scan", req.URL.String())

		var body map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		require.Equal(t, "sonarQube", body["scanType"])
		require.Equal(t, "Passed", body["status"])

		return jsonResponse(http.StatusOK, `{"id":"c1","name":"Auth Service","sonarQube":"Passed","nexusIq":"Pending","checkmarx":"Pending"}`), nil
	})

	client := NewClientWithHTTP("http://portal/api", doer)

	component, err := client.UpdateComponentScan(context.Background(), "r1", "t1", "c1", ScanSonarQube, ScanPassed)
	require.NoError(t, err)
	require.Equal(t, ScanPassed, component.SonarQube)
	require.Equal(t, ScanPending, component.NexusIQ)
}

func TestErrorStatusSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusInternalServerError, `{"error":"boom"}`), nil)

	client := NewClientWithHTTP("http://portal/api", doer)

	err := client.DeleteRelease(context.Background(), "r1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestDeleteUserStoryPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodDelete, req.Method)
		require.Equal(t, "http://portal/api/releases/r1/teams/t1/user-stories/US-1", req.URL.String())
		return jsonResponse(http.StatusNoContent, ""), nil
	})

	client := NewClientWithHTTP("http://portal/api", doer)

	require.NoError(t, client.DeleteUserStory(context.Background(), "r1", "t1", "US-1"))
}
