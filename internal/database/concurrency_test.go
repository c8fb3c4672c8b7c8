package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"innkeep/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentBookingOnlyOneWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := seedRoom(t, db)
	user := seedUser(t, db, "ada@example.com")

	checkIn := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	checkOut := checkIn.AddDate(0, 0, 2)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			booking := testBooking(user, room,
				fmt.Sprintf("HB-20260907-%06d", id), checkIn, checkOut, models.StatusConfirmed)
			results <- db.CreateBookingWithLock(ctx, booking)
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	conflictCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, ErrRoomNotAvailable):
			conflictCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successCount, "exactly one overlapping booking should win")
	assert.Equal(t, numGoroutines-1, conflictCount)

	count, err := db.CountOverlappingBookings(ctx, room.ID, checkIn, checkOut, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConcurrentTransitionOnlyOneWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := seedRoom(t, db)
	user := seedUser(t, db, "ada@example.com")

	booking := testBooking(user, room, "HB-20260907-AAAAAA",
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
		models.StatusConfirmed)
	require.NoError(t, db.CreateBooking(ctx, booking))

	const numGoroutines = 8
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	// Half race to check the guest in, half to mark a no-show.
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			if id%2 == 0 {
				results <- db.CheckInBooking(ctx, booking.ID, time.Now())
			} else {
				results <- db.MarkNoShow(ctx, booking.ID)
			}
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
		} else {
			assert.ErrorIs(t, err, ErrConcurrentModification)
		}
	}
	assert.Equal(t, 1, successCount, "exactly one transition should win")

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Contains(t, []models.BookingStatus{models.StatusCheckedIn, models.StatusNoShow}, got.Status)
}
