// Package report renders release status reports for export.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/user/release-portal/pkg/portal"
)

var header = []string{"Category", "Team", "Item", "Version/ID", "Detail", "Status"}

// WriteReleaseStatus writes the full status report for one release: release
// details, per-team sign-offs, per-component scan results, and per-story
// component coverage and QA state.
func WriteReleaseStatus(w io.Writer, release portal.Release) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		header,
		{"Release", "", release.Name, release.Version, "Target Date", release.ReleaseDate},
		{"Release", "", release.Name, release.Version, "Overall Approval", string(release.OverallAppOwnerSignedOff)},
	}

	for _, team := range release.Teams {
		rows = append(rows,
			[]string{"Team", team.Name, "QA Sign-off", "", "", string(team.QASignedOff)},
			[]string{"Team", team.Name, "Owner Approval", "", "", string(team.AppOwnerSignedOff)},
		)

		for _, c := range team.Components {
			rows = append(rows,
				[]string{"Component", team.Name, c.Name, c.Version, "SonarQube", string(c.SonarQube)},
				[]string{"Component", team.Name, c.Name, c.Version, "NexusIQ", string(c.NexusIQ)},
				[]string{"Component", team.Name, c.Name, c.Version, "Checkmarx", string(c.Checkmarx)},
			)
		}

		for _, story := range team.UserStories {
			names := make([]string, 0, len(story.Components))
			for _, c := range story.Components {
				names = append(names, c.Name)
			}
			componentNames := strings.Join(names, " | ")
			rows = append(rows,
				[]string{"User Story", team.Name, story.Description, story.ID, "Components", componentNames},
				[]string{"User Story", team.Name, story.Description, story.ID, "QA Status", string(story.QAStatus)},
			)
		}
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Filename derives the export file name from the release name.
func Filename(release portal.Release) string {
	slug := strings.ToLower(release.Name)
	slug = strings.Join(strings.Fields(slug), "-")
	return fmt.Sprintf("release-status-%s.csv", slug)
}
