package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryAvailabilityCache backs the Redis cache during outages. Entries
// expire lazily on read.
type MemoryAvailabilityCache struct {
	mu         sync.RWMutex
	rooms      map[int64]map[string]memoryEntry
	rateLimits sync.Map
	ttl        time.Duration
}

type memoryEntry struct {
	available bool
	expiresAt time.Time
}

func NewMemoryAvailabilityCache(ttl time.Duration) *MemoryAvailabilityCache {
	return &MemoryAvailabilityCache{
		rooms: make(map[int64]map[string]memoryEntry),
		ttl:   ttl,
	}
}

func (r *MemoryAvailabilityCache) GetAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ranges, ok := r.rooms[roomID]
	if !ok {
		return false, false, nil
	}
	entry, ok := ranges[rangeField(checkIn, checkOut)]
	if !ok || time.Now().After(entry.expiresAt) {
		return false, false, nil
	}
	return entry.available, true, nil
}

func (r *MemoryAvailabilityCache) SetAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ranges, ok := r.rooms[roomID]
	if !ok {
		ranges = make(map[string]memoryEntry)
		r.rooms[roomID] = ranges
	}
	ranges[rangeField(checkIn, checkOut)] = memoryEntry{
		available: available,
		expiresAt: time.Now().Add(r.ttl),
	}
	return nil
}

func (r *MemoryAvailabilityCache) InvalidateRoom(ctx context.Context, roomID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, roomID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryAvailabilityCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
