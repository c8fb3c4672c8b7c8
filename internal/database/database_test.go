package database

import (
	"context"
	"testing"
	"time"

	"innkeep/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := &models.User{
		Email:          "ada@example.com",
		HashedPassword: "hash",
		FirstName:      "Ada",
		LastName:       "Byron",
		Phone:          "+351 1234",
		Role:           models.RoleGuest,
		IsActive:       true,
	}
	require.NoError(t, db.CreateUser(ctx, user))
	require.NotZero(t, user.ID)

	found, err := db.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", found.Email)
	assert.Equal(t, "+351 1234", found.Phone)
	assert.Equal(t, models.RoleGuest, found.Role)
	assert.True(t, found.IsActive)

	byEmail, err := db.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = db.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedUser(t, db, "ada@example.com")

	dup := &models.User{Email: "ada@example.com", HashedPassword: "x", FirstName: "A", LastName: "B", Role: models.RoleGuest, IsActive: true}
	err := db.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestHotelCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	hotel := &models.Hotel{
		Name:     "Harbor View",
		Address:  "1 Quay St",
		City:     "Lisbon",
		Country:  "PT",
		Stars:    4,
		IsActive: true,
	}
	require.NoError(t, db.CreateHotel(ctx, hotel))
	require.NotZero(t, hotel.ID)

	found, err := db.GetHotel(ctx, hotel.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor View", found.Name)
	assert.Equal(t, 4, found.Stars)

	_, err = db.GetHotel(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListHotelsSkipsInactive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateHotel(ctx, &models.Hotel{Name: "Open", Address: "a", City: "c", Country: "PT", Stars: 3, IsActive: true}))
	require.NoError(t, db.CreateHotel(ctx, &models.Hotel{Name: "Closed", Address: "a", City: "c", Country: "PT", Stars: 3, IsActive: false}))

	hotels, err := db.ListHotels(ctx)
	require.NoError(t, err)
	require.Len(t, hotels, 1)
	assert.Equal(t, "Open", hotels[0].Name)
}

func TestCreateRoomAppliesDefaults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	hotel := &models.Hotel{Name: "Harbor View", Address: "a", City: "c", Country: "PT", Stars: 4, IsActive: true}
	require.NoError(t, db.CreateHotel(ctx, hotel))

	room := &models.Room{
		HotelID:       hotel.ID,
		RoomNumber:    "101",
		Name:          "Double",
		RoomType:      models.RoomDouble,
		BedType:       models.BedQueen,
		MaxOccupancy:  2,
		PricePerNight: 100,
		IsAvailable:   true,
	}
	require.NoError(t, db.CreateRoom(ctx, room))

	found, err := db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMinNights, found.MinNights)
	assert.Equal(t, models.DefaultMaxNights, found.MaxNights)
	assert.Equal(t, models.DefaultCancellationHours, found.CancellationHours)
}

func TestGetHotelRoomsOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	hotel := &models.Hotel{Name: "Harbor View", Address: "a", City: "c", Country: "PT", Stars: 4, IsActive: true}
	require.NoError(t, db.CreateHotel(ctx, hotel))

	for _, number := range []string{"201", "101", "102"} {
		room := &models.Room{
			HotelID: hotel.ID, RoomNumber: number, Name: "Room " + number,
			RoomType: models.RoomDouble, BedType: models.BedQueen,
			MaxOccupancy: 2, PricePerNight: 100, IsAvailable: true,
		}
		require.NoError(t, db.CreateRoom(ctx, room))
	}

	rooms, err := db.GetHotelRooms(ctx, hotel.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "101", rooms[0].RoomNumber)
	assert.Equal(t, "102", rooms[1].RoomNumber)
	assert.Equal(t, "201", rooms[2].RoomNumber)
}

func TestSetRoomAvailabilityFlag(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := seedRoom(t, db)

	require.NoError(t, db.SetRoomAvailabilityFlag(ctx, room.ID, false))

	found, err := db.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, found.IsAvailable)

	err = db.SetRoomAvailabilityFlag(ctx, 9999, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	room := seedRoom(t, db)
	user := seedUser(t, db, "ada@example.com")

	booking := testBooking(user, room, "HB-20260907-AAAAAA", date(2026, 9, 7), date(2026, 9, 9), models.StatusPending)
	require.NoError(t, db.CreateBooking(ctx, booking))

	paidAt := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	paid := &models.Payment{
		BookingID:     booking.ID,
		TransactionID: "txn-1",
		Amount:        220,
		Currency:      "USD",
		Method:        models.MethodCard,
		Status:        models.PaymentSucceeded,
		PaidAt:        &paidAt,
	}
	require.NoError(t, db.CreatePayment(ctx, paid))
	require.NotZero(t, paid.ID)

	failed := &models.Payment{
		BookingID:     booking.ID,
		TransactionID: "txn-2",
		Amount:        220,
		Currency:      "USD",
		Method:        models.MethodCard,
		Status:        models.PaymentFailed,
	}
	require.NoError(t, db.CreatePayment(ctx, failed))

	payments, err := db.GetBookingPayments(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)

	assert.Equal(t, "txn-1", payments[0].TransactionID)
	require.NotNil(t, payments[0].PaidAt)
	assert.True(t, payments[0].PaidAt.Equal(paidAt))

	assert.Equal(t, models.PaymentFailed, payments[1].Status)
	assert.Nil(t, payments[1].PaidAt)
}
