package store

import "github.com/user/release-portal/pkg/portal"

// Metrics are the dashboard aggregates derived from the current snapshot.
type Metrics struct {
	Total      int
	InProgress int
	Completed  int
	Blocked    int
}

func (s *Store) Metrics() Metrics {
	releases := s.Releases()

	m := Metrics{Total: len(releases)}
	for _, r := range releases {
		switch r.Status {
		case portal.StatusInProgress:
			m.InProgress++
		case portal.StatusCompleted:
			m.Completed++
		case portal.StatusBlocked:
			m.Blocked++
		}
	}
	return m
}

// CountByStatus feeds the status breakdown chart.
func (s *Store) CountByStatus() map[portal.ReleaseStatus]int {
	counts := make(map[portal.ReleaseStatus]int)
	for _, r := range s.Releases() {
		counts[r.Status]++
	}
	return counts
}

// FilterByStatus returns the releases currently in the given lifecycle
// state, in snapshot order.
func (s *Store) FilterByStatus(status portal.ReleaseStatus) []portal.Release {
	var out []portal.Release
	for _, r := range s.Releases() {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
