package pipeline

import (
	"time"

	"github.com/IshaanNene/TopicPulse/internal/types"
)

// SanitizeMiddleware restores the record invariants: counters are never
// negative, a rank is at least 1 and listed minutes are not negative.
// Out-of-range values fall back to their defaults.
type SanitizeMiddleware struct{}

func (m *SanitizeMiddleware) Name() string { return "sanitize" }

func (m *SanitizeMiddleware) Process(stats *types.TopicStats) (*types.TopicStats, error) {
	for _, n := range []*int64{
		&stats.ReadCount,
		&stats.DiscussionCount,
		&stats.InteractionCount,
		&stats.OriginalCount,
	} {
		if *n < 0 {
			*n = 0
		}
	}
	if stats.BestRank != nil && *stats.BestRank < 1 {
		stats.BestRank = nil
	}
	if stats.ListedMinutes != nil && *stats.ListedMinutes < 0 {
		stats.ListedMinutes = nil
	}
	return stats, nil
}

// StampMiddleware sets FetchedAt on records that do not carry one.
type StampMiddleware struct {
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

func (m *StampMiddleware) Name() string { return "stamp" }

func (m *StampMiddleware) Process(stats *types.TopicStats) (*types.TopicStats, error) {
	if stats.FetchedAt.IsZero() {
		now := time.Now
		if m.Now != nil {
			now = m.Now
		}
		stats.FetchedAt = now()
	}
	return stats, nil
}
