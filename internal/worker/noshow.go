package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// noShowMarker is the slice of the booking lifecycle the sweeper needs.
type noShowMarker interface {
	SweepNoShows(ctx context.Context) (int, error)
}

// NoShowSweeper periodically marks confirmed bookings whose guests never
// arrived. Transient sweep failures are retried with backoff inside the
// tick; a tick that exhausts its retries waits for the next interval.
type NoShowSweeper struct {
	bookings noShowMarker
	interval time.Duration
	retry    RetryPolicy
	logger   *zerolog.Logger
}

func NewNoShowSweeper(bookings noShowMarker, interval time.Duration, retry RetryPolicy, logger *zerolog.Logger) *NoShowSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &NoShowSweeper{
		bookings: bookings,
		interval: interval,
		retry:    retry,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. An immediate sweep runs on startup so
// restarts do not delay overdue markings by a full interval.
func (s *NoShowSweeper) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("no-show sweeper started")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("no-show sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *NoShowSweeper) sweep(ctx context.Context) {
	for attempt := 1; attempt <= s.retry.MaxRetries; attempt++ {
		marked, err := s.bookings.SweepNoShows(ctx)
		if err == nil {
			if marked > 0 {
				s.logger.Info().Int("marked", marked).Msg("no-show sweep complete")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		delay := s.retry.NextDelay(attempt)
		s.logger.Error().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("no-show sweep failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}
