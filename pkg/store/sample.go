package store

import "github.com/user/release-portal/pkg/portal"

// SampleReleases is the bundled fallback dataset shown until the remote
// collection arrives. IDs are prefixed "sample-" so they never collide with
// server-issued identifiers.
func SampleReleases() []portal.Release {
	authService := portal.Component{
		ID:        "sample-auth-service",
		Name:      "Authentication Service",
		Version:   "1.2.3",
		SonarQube: portal.ScanPassed,
		NexusIQ:   portal.ScanPassed,
		Checkmarx: portal.ScanPassed,
	}
	uiGateway := portal.Component{
		ID:        "sample-ui-gateway",
		Name:      "UI Gateway",
		Version:   "2.0.1",
		SonarQube: portal.ScanPending,
		NexusIQ:   portal.ScanPassed,
		Checkmarx: portal.ScanPending,
	}
	reportingAPI := portal.Component{
		ID:        "sample-reporting-api",
		Name:      "Reporting API",
		Version:   "2.2.0",
		SonarQube: portal.ScanPassed,
		NexusIQ:   portal.ScanPassed,
		Checkmarx: portal.ScanPassed,
	}

	return []portal.Release{
		{
			ID:                       "sample-q1-2024-aurora",
			Name:                     "Project Aurora (Loading...)",
			Version:                  "2.1.0",
			ReleaseDate:              "2024-03-30",
			Status:                   portal.StatusInProgress,
			OverallAppOwnerSignedOff: portal.SignOffPending,
			Teams: []portal.Team{
				{
					ID:                "sample-alpha-squad",
					Name:              "Alpha Squad",
					TeamDL:            "alpha-squad@example.com",
					ProductOwner:      "Alice Smith",
					QASignedOff:       portal.SignOffPending,
					AppOwnerSignedOff: portal.SignOffPending,
					Components:        []portal.Component{authService, uiGateway},
					UserStories: []portal.UserStory{
						{
							ID:          "sample-US-101",
							Description: "As a user, I should be able to log in with my username and password.",
							QAStatus:    portal.QAPassed,
							Components:  []portal.Component{authService},
						},
						{
							ID:          "sample-US-102",
							Description: "As a user, I should see an error for invalid credentials.",
							QAStatus:    portal.QAInProgress,
							Components:  []portal.Component{authService, uiGateway},
						},
					},
				},
				{
					ID:                "sample-bravo-team",
					Name:              "Bravo Team",
					TeamDL:            "bravo-team@example.com",
					ProductOwner:      "Bob Johnson",
					QASignedOff:       portal.SignOffCompleted,
					AppOwnerSignedOff: portal.SignOffCompleted,
					Components:        []portal.Component{},
					UserStories:       []portal.UserStory{},
				},
			},
		},
		{
			ID:                       "sample-q4-2023-nebula",
			Name:                     "Project Nebula (Loading...)",
			Version:                  "1.9.5",
			ReleaseDate:              "2023-12-15",
			Status:                   portal.StatusCompleted,
			OverallAppOwnerSignedOff: portal.SignOffCompleted,
			Teams: []portal.Team{
				{
					ID:                "sample-delta-force",
					Name:              "Delta Force",
					TeamDL:            "delta-force@example.com",
					ProductOwner:      "Charlie Brown",
					QASignedOff:       portal.SignOffCompleted,
					AppOwnerSignedOff: portal.SignOffCompleted,
					Components:        []portal.Component{reportingAPI},
					UserStories: []portal.UserStory{
						{
							ID:          "sample-US-301",
							Description: "Generate end-of-day sales reports.",
							QAStatus:    portal.QAPassed,
							Components:  []portal.Component{reportingAPI},
						},
					},
				},
			},
		},
	}
}
