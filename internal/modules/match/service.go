// README: Read-only ride matcher; storage failures degrade to empty results.
package match

import (
	"context"
	"log/slog"
	"sort"

	"campool/internal/destgroup"
	"campool/internal/modules/ride"
	"campool/internal/observability"
)

// RideLister is the storage dependency of the matcher: it returns rides that
// could still take the requester, open for joining on the query date with a
// free seat and not created by the requester.
type RideLister interface {
	ListOpenRides(ctx context.Context, q Query) ([]*ride.Ride, error)
}

type Service struct {
	store  RideLister
	groups *destgroup.Table
	logger *slog.Logger
	topN   int
}

func NewService(store RideLister, groups *destgroup.Table, logger *slog.Logger, topN int) *Service {
	return &Service{store: store, groups: groups, logger: logger, topN: topN}
}

// FindMatches returns up to topN candidate rides for the query. The matcher
// never mutates state and never fails the caller: a storage error is logged
// and reported as "no matches".
func (s *Service) FindMatches(ctx context.Context, q Query) []Candidate {
	observability.MatchRequestsTotal.Inc()
	rides, err := s.store.ListOpenRides(ctx, q)
	if err != nil {
		observability.MatchStoreErrors.Inc()
		s.logger.Error("match listing failed, returning empty", "error", err)
		return []Candidate{}
	}
	candidates := make([]Candidate, 0, len(rides))
	for _, r := range rides {
		if !s.groups.Compatible(q.Destination, r.Destination) {
			continue
		}
		if !overlaps(q.WindowStart, q.WindowEnd, r.WindowStart, r.WindowEnd) {
			continue
		}
		candidates = append(candidates, Candidate{
			Ride:             r,
			ExactDestination: destgroup.Equal(q.Destination, r.Destination),
			StartDelta:       absDelta(q.WindowStart, r.WindowStart),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.ExactDestination != b.ExactDestination {
			return a.ExactDestination
		}
		if a.StartDelta != b.StartDelta {
			return a.StartDelta < b.StartDelta
		}
		return a.Ride.ID < b.Ride.ID
	})
	if len(candidates) > s.topN {
		candidates = candidates[:s.topN]
	}
	return candidates
}

// overlaps treats both windows as closed intervals: touching endpoints count.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && bStart <= aEnd
}

func absDelta(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
