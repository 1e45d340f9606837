package picker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gapirelay-go/internal/google"
	"gapirelay-go/internal/metrics"
	"gapirelay-go/pkg/models"
)

// MediaFetcher lists the media items picked in a selection session.
type MediaFetcher interface {
	PickedMediaItems(ctx context.Context, accessToken, sessionID string) ([]models.MediaItem, error)
}

// SelectionTimeoutError means polling exhausted its attempts without the
// provider reporting usable media; the whole selection flow may be retried.
type SelectionTimeoutError struct {
	Attempts int
}

func (e *SelectionTimeoutError) Error() string {
	return fmt.Sprintf("selection not ready after %d attempts", e.Attempts)
}

// Poller waits out a provider-hosted selection flow. The interactive surface
// is out of process, so completion detection is best effort: the caller's
// closed signal and a hard wall-clock timeout race, and whichever fires first
// funnels into the same bounded retrying fetch.
type Poller struct {
	fetcher     MediaFetcher
	logger      zerolog.Logger
	hardTimeout time.Duration
	baseDelay   time.Duration
	maxAttempts int
}

// NewPoller creates a Poller. Zero values fall back to 30s hard timeout, 2s
// base delay, and 3 attempts.
func NewPoller(fetcher MediaFetcher, hardTimeout, baseDelay time.Duration, maxAttempts int, logger zerolog.Logger) *Poller {
	if hardTimeout <= 0 {
		hardTimeout = 30 * time.Second
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Poller{
		fetcher:     fetcher,
		logger:      logger.With().Str("component", "picker").Logger(),
		hardTimeout: hardTimeout,
		baseDelay:   baseDelay,
		maxAttempts: maxAttempts,
	}
}

// Await blocks until the selection surface closes or the hard timeout
// elapses, then fetches the picked media. A nil closed channel leaves only
// the timeout. Cancelling ctx stops everything immediately.
func (p *Poller) Await(ctx context.Context, accessToken, sessionID string, closed <-chan struct{}) ([]models.MediaItem, error) {
	timer := time.NewTimer(p.hardTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-closed:
		p.logger.Debug().Str("session_id", sessionID).Msg("selection surface closed")
	case <-timer.C:
		p.logger.Debug().Str("session_id", sessionID).Msg("selection hard timeout reached")
	}

	return p.Fetch(ctx, accessToken, sessionID)
}

// Fetch lists the picked media, retrying only the "user has not finished
// picking" condition with linearly increasing delay. Attempts are bounded;
// exhaustion yields SelectionTimeoutError.
func (p *Poller) Fetch(ctx context.Context, accessToken, sessionID string) ([]models.MediaItem, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		metrics.SelectionPolls.Inc()

		items, err := p.fetcher.PickedMediaItems(ctx, accessToken, sessionID)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, google.ErrSelectionNotReady) {
			return nil, err
		}
		if attempt == p.maxAttempts {
			break
		}

		delay := time.Duration(attempt) * p.baseDelay
		p.logger.Debug().
			Str("session_id", sessionID).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("selection not ready, backing off")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	metrics.SelectionTimeouts.Inc()
	return nil, &SelectionTimeoutError{Attempts: p.maxAttempts}
}

// WatchSurface samples probe at the given interval and closes the returned
// channel once it reports true. It is the relay-side stand-in for watching an
// external window for closure; feed the result to Await.
func WatchSurface(ctx context.Context, interval time.Duration, probe func() bool) <-chan struct{} {
	if interval <= 0 {
		interval = time.Second
	}
	closed := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if probe() {
					close(closed)
					return
				}
			}
		}
	}()
	return closed
}
