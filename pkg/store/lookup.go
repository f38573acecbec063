package store

import (
	"context"

	"github.com/user/release-portal/internal/logger"
	"github.com/user/release-portal/pkg/portal"
)

// WatchRelease returns a channel that carries the release with the given ID
// as it exists in each snapshot, starting with the current one; nil means
// not found. A miss triggers a single background fetch that appends the
// release to the snapshot when it exists remotely, so a deep link to a
// not-yet-loaded release resolves once the fetch lands. The returned func
// cancels the watch.
func (s *Store) WatchRelease(releaseID string) (<-chan *portal.Release, func()) {
	ch := make(chan *portal.Release, 16)

	deliver := func(releases []portal.Release) {
		var found *portal.Release
		for i := range releases {
			if releases[i].ID == releaseID {
				rel := releases[i]
				found = &rel
				break
			}
		}
		if found == nil {
			s.fetchMissing(releaseID)
		}
		// When the buffer is full, drop the oldest value so a slow
		// consumer still ends up on the latest snapshot.
		select {
		case ch <- found:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- found:
			default:
			}
		}
	}

	cancel := s.Subscribe(deliver)
	return ch, cancel
}

// fetchMissing backfills a single release. An in-flight marker keeps
// repeated observations of the same missing ID from issuing duplicate
// requests before the first one resolves.
func (s *Store) fetchMissing(releaseID string) {
	s.mu.Lock()
	if _, ok := s.inflight[releaseID]; ok {
		s.mu.Unlock()
		return
	}
	s.inflight[releaseID] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inflight, releaseID)
			s.mu.Unlock()
		}()

		release, err := s.client.GetRelease(context.Background(), releaseID)
		if err != nil {
			logWarn(err, releaseID, "backfill fetch failed")
			return
		}
		if release == nil {
			// Remote 404: the watch keeps reporting not found.
			return
		}

		s.apply(func(releases []portal.Release) []portal.Release {
			for i := range releases {
				if releases[i].ID == release.ID {
					return releases
				}
			}
			next := make([]portal.Release, len(releases), len(releases)+1)
			copy(next, releases)
			return append(next, *release)
		})
	}()
}

func logWarn(err error, releaseID, msg string) {
	logger.Warn().Err(err).Str("release_id", releaseID).Msg(msg)
}
