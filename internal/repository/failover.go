package repository

import (
	"context"
	"sync/atomic"
	"time"

	"innkeep/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverAvailabilityCache serves from the primary (Redis) cache and drops
// to the in-memory fallback when it errors, retrying the primary after a
// minute.
type FailoverAvailabilityCache struct {
	primary   domain.AvailabilityCache
	fallback  domain.AvailabilityCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverAvailabilityCache(primary, fallback domain.AvailabilityCache, logger *zerolog.Logger) *FailoverAvailabilityCache {
	return &FailoverAvailabilityCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverAvailabilityCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary availability cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverAvailabilityCache) primaryUsable() bool {
	if !r.isDown.Load() {
		return true
	}
	if time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute {
		r.lastCheck.Store(time.Now().UnixNano())
		return true
	}
	return false
}

func (r *FailoverAvailabilityCache) recovered() {
	if r.isDown.Load() {
		r.logger.Info().Msg("Primary availability cache recovered")
		r.isDown.Store(false)
	}
}

func (r *FailoverAvailabilityCache) GetAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, bool, error) {
	if r.primaryUsable() {
		available, found, err := r.primary.GetAvailability(ctx, roomID, checkIn, checkOut)
		if err == nil {
			r.recovered()
			return available, found, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetAvailability(ctx, roomID, checkIn, checkOut)
}

func (r *FailoverAvailabilityCache) SetAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time, available bool) error {
	if r.primaryUsable() {
		err := r.primary.SetAvailability(ctx, roomID, checkIn, checkOut, available)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetAvailability(ctx, roomID, checkIn, checkOut, available)
}

// InvalidateRoom clears both layers; a stale fallback entry would survive a
// primary-only invalidation.
func (r *FailoverAvailabilityCache) InvalidateRoom(ctx context.Context, roomID int64) error {
	fallbackErr := r.fallback.InvalidateRoom(ctx, roomID)

	if r.primaryUsable() {
		err := r.primary.InvalidateRoom(ctx, roomID)
		if err == nil {
			r.recovered()
			return fallbackErr
		}
		r.markDown(err)
	}
	return fallbackErr
}

func (r *FailoverAvailabilityCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.primaryUsable() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.recovered()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
