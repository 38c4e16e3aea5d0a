package focus

import (
	"context"
	"time"
)

// Querier is the OS foreground-app facility. Both calls are best-effort and
// fallible; a failing query must never take the polling loop down.
// Implementations return domain.ErrPermissionUnavailable when the OS denies
// the query outright (missing usage-access permission).
type Querier interface {
	CurrentForegroundApp(ctx context.Context) (string, error)
	BringToForeground(ctx context.Context, appId string) error
}

// PeriodicTickerChannelCreator abstracts ticker construction so tests can
// drive the detector with hand-fed channels.
type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

type ticker struct{}

func (t *ticker) Create(duration time.Duration) <-chan time.Time {
	return time.NewTicker(duration).C
}

func NewTickerGen() *ticker {
	return &ticker{}
}

// FocusScore is the percentage of elapsed session time spent focused,
// clamped to [0,100]. Zero elapsed time scores 0.
func FocusScore(focusSeconds, elapsedSeconds int) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	score := float64(focusSeconds) / float64(elapsedSeconds) * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
