package service

import (
	"context"
	"io"
	"testing"
	"time"

	"innkeep/internal/config"
	"innkeep/internal/database"
	"innkeep/internal/events"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingByReference(ctx context.Context, ref string) (*models.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}
func (m *mockRepo) CountOverlappingBookings(ctx context.Context, roomID int64, in, out time.Time, ex int64) (int, error) {
	args := m.Called(ctx, roomID, in, out, ex)
	return args.Int(0), args.Error(1)
}
func (m *mockRepo) FindOverlappingBookings(ctx context.Context, roomID int64, in, out time.Time, ex int64) ([]*models.Booking, error) {
	args := m.Called(ctx, roomID, in, out, ex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetUserBookings(ctx context.Context, id int64) ([]*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetRoomBookings(ctx context.Context, id int64, from, to time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) GetNoShowCandidates(ctx context.Context, cutoff time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ConfirmBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) CheckInBooking(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
func (m *mockRepo) CheckOutBooking(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
func (m *mockRepo) CancelBooking(ctx context.Context, id int64, r models.CancellationReason, n string, at time.Time) error {
	return m.Called(ctx, id, r, n, at).Error(0)
}
func (m *mockRepo) MarkNoShow(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) DeleteBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}
func (m *mockRepo) GetHotelRooms(ctx context.Context, id int64) ([]*models.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Room), args.Error(1)
}
func (m *mockRepo) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hotel), args.Error(1)
}
func (m *mockRepo) ListHotels(ctx context.Context) ([]*models.Hotel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Hotel), args.Error(1)
}
func (m *mockRepo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockRepo) GetBookingPayments(ctx context.Context, id int64) ([]*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetAvailability(ctx context.Context, roomID int64, in, out time.Time) (bool, bool, error) {
	args := m.Called(ctx, roomID, in, out)
	return args.Bool(0), args.Bool(1), args.Error(2)
}
func (m *mockCache) SetAvailability(ctx context.Context, roomID int64, in, out time.Time, a bool) error {
	return m.Called(ctx, roomID, in, out, a).Error(0)
}
func (m *mockCache) InvalidateRoom(ctx context.Context, roomID int64) error {
	return m.Called(ctx, roomID).Error(0)
}
func (m *mockCache) CheckRateLimit(ctx context.Context, key string, limit int, w time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, w)
	return args.Bool(0), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

// Tuesday 2026-08-25 noon UTC.
var testNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func testDate(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo *mockRepo, bus *mockEventBus) *BookingService {
	logger := zerolog.New(io.Discard)
	svc := NewBookingService(repo, nil, bus, config.BookingConfig{
		MaxAdvanceDays:    365,
		CancellationHours: 24,
		NoShowGraceHours:  24,
		TaxRate:           0.1,
		Currency:          "USD",
	}, &logger)
	svc.now = func() time.Time { return testNow }
	return svc
}

func testRoom() *models.Room {
	return &models.Room{
		ID:            7,
		HotelID:       1,
		PricePerNight: 100,
		MaxOccupancy:  3,
		IsAvailable:   true,
		MinNights:     1,
		MaxNights:     30,
	}
}

func validRequest() models.CreateBookingRequest {
	return models.CreateBookingRequest{
		UserID:         42,
		RoomID:         7,
		CheckInDate:    testDate(2026, 9, 7),
		CheckOutDate:   testDate(2026, 9, 9),
		GuestCount:     2,
		AdultCount:     2,
		GuestFirstName: "Ada",
		GuestLastName:  "Byron",
		GuestEmail:     "ada@example.com",
	}
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPath", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		repo.On("GetRoom", ctx, int64(7)).Return(testRoom(), nil).Once()
		repo.On("CountOverlappingBookings", ctx, int64(7), testDate(2026, 9, 7), testDate(2026, 9, 9), int64(0)).Return(0, nil).Once()
		repo.On("ReferenceExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
		repo.On("CreateBookingWithLock", ctx, mock.AnythingOfType("*models.Booking")).Return(nil).Once()
		bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil).Once()

		booking, err := svc.CreateBooking(ctx, validRequest())
		require.NoError(t, err)

		// Two weekday nights at 100 plus 10% tax.
		assert.Equal(t, models.StatusPending, booking.Status)
		assert.Equal(t, 2, booking.Nights)
		assert.Equal(t, 200.0, booking.TotalAmount)
		assert.Equal(t, 20.0, booking.TaxAmount)
		assert.Equal(t, 220.0, booking.FinalAmount)
		assert.Regexp(t, `^HB-\d{8}-[A-Z0-9]{6}$`, booking.BookingReference)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("WeekendPricing", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		// Friday Sep 4 to Monday Sep 7: one weekday night, two weekend nights.
		req := validRequest()
		req.CheckInDate = testDate(2026, 9, 4)
		req.CheckOutDate = testDate(2026, 9, 7)

		repo.On("GetRoom", ctx, int64(7)).Return(testRoom(), nil).Once()
		repo.On("CountOverlappingBookings", ctx, int64(7), req.CheckInDate, req.CheckOutDate, int64(0)).Return(0, nil).Once()
		repo.On("ReferenceExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
		repo.On("CreateBookingWithLock", ctx, mock.AnythingOfType("*models.Booking")).Return(nil).Once()
		bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil).Once()

		booking, err := svc.CreateBooking(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 340.0, booking.TotalAmount)
		assert.Equal(t, 34.0, booking.TaxAmount)
		assert.Equal(t, 374.0, booking.FinalAmount)
	})

	t.Run("RoomOccupied", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		repo.On("GetRoom", ctx, int64(7)).Return(testRoom(), nil).Once()
		repo.On("CountOverlappingBookings", ctx, int64(7), mock.Anything, mock.Anything, int64(0)).Return(1, nil).Once()

		_, err := svc.CreateBooking(ctx, validRequest())
		assert.ErrorIs(t, err, database.ErrRoomNotAvailable)
		repo.AssertNotCalled(t, "CreateBookingWithLock", mock.Anything, mock.Anything)
	})

	t.Run("RoomClosed", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		room := testRoom()
		room.IsAvailable = false
		repo.On("GetRoom", ctx, int64(7)).Return(room, nil).Once()

		_, err := svc.CreateBooking(ctx, validRequest())
		assert.ErrorIs(t, err, database.ErrRoomNotAvailable)
	})

	t.Run("RoomMissing", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		repo.On("GetRoom", ctx, int64(7)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.CreateBooking(ctx, validRequest())
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("Validation", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*models.CreateBookingRequest)
		}{
			{"CheckOutNotAfterCheckIn", func(r *models.CreateBookingRequest) {
				r.CheckOutDate = r.CheckInDate
			}},
			{"CheckInInPast", func(r *models.CreateBookingRequest) {
				r.CheckInDate = testDate(2026, 8, 24)
			}},
			{"TooFarAhead", func(r *models.CreateBookingRequest) {
				r.CheckInDate = testDate(2027, 9, 7)
				r.CheckOutDate = testDate(2027, 9, 9)
			}},
			{"GuestCountMismatch", func(r *models.CreateBookingRequest) {
				r.GuestCount = 3
			}},
			{"NoAdults", func(r *models.CreateBookingRequest) {
				r.AdultCount = 0
				r.GuestCount = 0
			}},
			{"OverOccupancy", func(r *models.CreateBookingRequest) {
				r.AdultCount = 4
				r.GuestCount = 4
			}},
			{"MissingGuestName", func(r *models.CreateBookingRequest) {
				r.GuestLastName = ""
			}},
			{"NegativeDiscount", func(r *models.CreateBookingRequest) {
				r.DiscountAmount = -5
			}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				repo := new(mockRepo)
				bus := new(mockEventBus)
				svc := newTestService(repo, bus)
				repo.On("GetRoom", ctx, int64(7)).Return(testRoom(), nil).Once()

				req := validRequest()
				tc.mutate(&req)

				_, err := svc.CreateBooking(ctx, req)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				repo.AssertNotCalled(t, "CreateBookingWithLock", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("ReferenceRetry", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		repo.On("GetRoom", ctx, int64(7)).Return(testRoom(), nil).Once()
		repo.On("CountOverlappingBookings", ctx, int64(7), mock.Anything, mock.Anything, int64(0)).Return(0, nil).Once()
		repo.On("ReferenceExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
		repo.On("ReferenceExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
		repo.On("CreateBookingWithLock", ctx, mock.AnythingOfType("*models.Booking")).Return(nil).Once()
		bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil).Once()

		_, err := svc.CreateBooking(ctx, validRequest())
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessConfirmsPending", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		booking := &models.Booking{ID: 9, RoomID: 7, Status: models.StatusPending, FinalAmount: 220}
		repo.On("GetBooking", ctx, int64(9)).Return(booking, nil).Once()
		repo.On("CreatePayment", ctx, mock.AnythingOfType("*models.Payment")).Return(nil).Once()
		repo.On("ConfirmBooking", ctx, int64(9)).Return(nil).Once()
		bus.On("PublishJSON", events.EventPaymentRecorded, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", events.EventBookingConfirmed, mock.Anything).Return(nil).Once()

		payment, err := svc.RecordPayment(ctx, 9, 220, models.MethodCard, true)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentSucceeded, payment.Status)
		assert.NotEmpty(t, payment.TransactionID)
		assert.NotNil(t, payment.PaidAt)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("FailureLeavesPending", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		booking := &models.Booking{ID: 9, RoomID: 7, Status: models.StatusPending}
		repo.On("GetBooking", ctx, int64(9)).Return(booking, nil).Once()
		repo.On("CreatePayment", ctx, mock.AnythingOfType("*models.Payment")).Return(nil).Once()
		bus.On("PublishJSON", events.EventPaymentRecorded, mock.Anything).Return(nil).Once()

		payment, err := svc.RecordPayment(ctx, 9, 220, models.MethodCard, false)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, payment.Status)
		assert.Nil(t, payment.PaidAt)
		repo.AssertNotCalled(t, "ConfirmBooking", mock.Anything, mock.Anything)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		_, err := svc.RecordPayment(ctx, 9, 0, models.MethodCard, true)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	confirmedBooking := func(checkIn time.Time) *models.Booking {
		return &models.Booking{
			ID:           5,
			RoomID:       7,
			Status:       models.StatusConfirmed,
			CheckInDate:  checkIn,
			CheckOutDate: checkIn.AddDate(0, 0, 2),
			FinalAmount:  400,
		}
	}

	t.Run("FullRefund", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		booking := confirmedBooking(testDate(2026, 9, 10))
		cancelled := confirmedBooking(testDate(2026, 9, 10))
		cancelled.Status = models.StatusCancelled

		repo.On("GetBooking", ctx, int64(5)).Return(booking, nil).Once()
		repo.On("GetRoom", ctx, int64(7)).Return(testRoom(), nil).Once()
		repo.On("CancelBooking", ctx, int64(5), models.CancelUserRequested, "plans changed", testNow).Return(nil).Once()
		repo.On("CreatePayment", ctx, mock.MatchedBy(func(p *models.Payment) bool {
			return p.Amount == 400 && p.Method == models.MethodRefund && p.Status == models.PaymentRefunded
		})).Return(nil).Once()
		repo.On("GetBooking", ctx, int64(5)).Return(cancelled, nil).Once()
		bus.On("PublishJSON", events.EventBookingCancelled, mock.Anything).Return(nil).Once()

		result, err := svc.CancelBooking(ctx, 5, models.CancelUserRequested, "plans changed")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, result.Status)
		repo.AssertExpectations(t)
	})

	t.Run("HalfRefund", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		// Four days out lands in the 3-6 day band.
		booking := confirmedBooking(testDate(2026, 8, 29))
		cancelled := confirmedBooking(testDate(2026, 8, 29))
		cancelled.Status = models.StatusCancelled

		repo.On("GetBooking", ctx, int64(5)).Return(booking, nil).Once()
		repo.On("GetRoom", ctx, int64(7)).Return(testRoom(), nil).Once()
		repo.On("CancelBooking", ctx, int64(5), models.CancelUserRequested, "", testNow).Return(nil).Once()
		repo.On("CreatePayment", ctx, mock.MatchedBy(func(p *models.Payment) bool {
			return p.Amount == 200
		})).Return(nil).Once()
		repo.On("GetBooking", ctx, int64(5)).Return(cancelled, nil).Once()
		bus.On("PublishJSON", events.EventBookingCancelled, mock.Anything).Return(nil).Once()

		_, err := svc.CancelBooking(ctx, 5, models.CancelUserRequested, "")
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("InsideWindowRejected", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		// Check-in tomorrow midnight is only 12 hours away from testNow.
		booking := confirmedBooking(testDate(2026, 8, 26))
		repo.On("GetBooking", ctx, int64(5)).Return(booking, nil).Once()
		repo.On("GetRoom", ctx, int64(7)).Return(testRoom(), nil).Once()

		_, err := svc.CancelBooking(ctx, 5, models.CancelUserRequested, "")
		var terr *InvalidTransitionError
		require.ErrorAs(t, err, &terr)
		repo.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("TerminalStateRejected", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		booking := confirmedBooking(testDate(2026, 9, 10))
		booking.Status = models.StatusCheckedOut
		repo.On("GetBooking", ctx, int64(5)).Return(booking, nil).Once()

		_, err := svc.CancelBooking(ctx, 5, models.CancelUserRequested, "")
		var terr *InvalidTransitionError
		assert.ErrorAs(t, err, &terr)
	})

	t.Run("UnknownReason", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		_, err := svc.CancelBooking(ctx, 5, "whim", "")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestCheckInCheckOut(t *testing.T) {
	ctx := context.Background()

	t.Run("CheckInConfirmed", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		booking := &models.Booking{ID: 3, RoomID: 7, Status: models.StatusConfirmed}
		updated := &models.Booking{ID: 3, RoomID: 7, Status: models.StatusCheckedIn}

		repo.On("GetBooking", ctx, int64(3)).Return(booking, nil).Once()
		repo.On("CheckInBooking", ctx, int64(3), testNow).Return(nil).Once()
		repo.On("GetBooking", ctx, int64(3)).Return(updated, nil).Once()
		bus.On("PublishJSON", events.EventBookingCheckedIn, mock.Anything).Return(nil).Once()

		result, err := svc.CheckIn(ctx, 3, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCheckedIn, result.Status)
		repo.AssertExpectations(t)
	})

	t.Run("CheckInPendingRejected", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		booking := &models.Booking{ID: 3, RoomID: 7, Status: models.StatusPending}
		repo.On("GetBooking", ctx, int64(3)).Return(booking, nil).Once()

		_, err := svc.CheckIn(ctx, 3, nil)
		var terr *InvalidTransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, models.StatusPending, terr.From)
		repo.AssertNotCalled(t, "CheckInBooking", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CheckOutAtExplicitTime", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		at := testNow.Add(2 * time.Hour)
		booking := &models.Booking{ID: 3, RoomID: 7, Status: models.StatusCheckedIn}
		updated := &models.Booking{ID: 3, RoomID: 7, Status: models.StatusCheckedOut}

		repo.On("GetBooking", ctx, int64(3)).Return(booking, nil).Once()
		repo.On("CheckOutBooking", ctx, int64(3), at).Return(nil).Once()
		repo.On("GetBooking", ctx, int64(3)).Return(updated, nil).Once()
		bus.On("PublishJSON", events.EventBookingCheckedOut, mock.Anything).Return(nil).Once()

		result, err := svc.CheckOut(ctx, 3, &at)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCheckedOut, result.Status)
	})
}

func TestMarkNoShow(t *testing.T) {
	ctx := context.Background()

	t.Run("AfterCheckInDate", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		booking := &models.Booking{ID: 8, RoomID: 7, Status: models.StatusConfirmed, CheckInDate: testDate(2026, 8, 23)}
		updated := &models.Booking{ID: 8, RoomID: 7, Status: models.StatusNoShow}

		repo.On("GetBooking", ctx, int64(8)).Return(booking, nil).Once()
		repo.On("MarkNoShow", ctx, int64(8)).Return(nil).Once()
		repo.On("GetBooking", ctx, int64(8)).Return(updated, nil).Once()
		bus.On("PublishJSON", events.EventBookingNoShow, mock.Anything).Return(nil).Once()

		result, err := svc.MarkNoShow(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, models.StatusNoShow, result.Status)
	})

	t.Run("BeforeCheckInDate", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		booking := &models.Booking{ID: 8, RoomID: 7, Status: models.StatusConfirmed, CheckInDate: testDate(2026, 9, 10)}
		repo.On("GetBooking", ctx, int64(8)).Return(booking, nil).Once()

		_, err := svc.MarkNoShow(ctx, 8)
		var terr *InvalidTransitionError
		assert.ErrorAs(t, err, &terr)
		repo.AssertNotCalled(t, "MarkNoShow", mock.Anything, mock.Anything)
	})
}

func TestSweepNoShows(t *testing.T) {
	ctx := context.Background()

	repo := new(mockRepo)
	bus := new(mockEventBus)
	svc := newTestService(repo, bus)

	candidates := []*models.Booking{
		{ID: 1, RoomID: 7, Status: models.StatusConfirmed, CheckInDate: testDate(2026, 8, 20)},
		{ID: 2, RoomID: 8, Status: models.StatusConfirmed, CheckInDate: testDate(2026, 8, 21)},
	}

	repo.On("GetNoShowCandidates", ctx, testNow.Add(-24*time.Hour)).Return(candidates, nil).Once()
	repo.On("MarkNoShow", ctx, int64(1)).Return(nil).Once()
	// Booking 2 raced with a check-in; the sweep moves on.
	repo.On("MarkNoShow", ctx, int64(2)).Return(database.ErrConcurrentModification).Once()
	bus.On("PublishJSON", events.EventBookingNoShow, mock.Anything).Return(nil).Once()

	marked, err := svc.SweepNoShows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestIsRoomAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("CacheHitSkipsRepo", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)
		cache := new(mockCache)
		svc.cache = cache

		in, out := testDate(2026, 9, 7), testDate(2026, 9, 9)
		cache.On("GetAvailability", ctx, int64(7), in, out).Return(true, true, nil).Once()

		available, err := svc.IsRoomAvailable(ctx, 7, in, out)
		require.NoError(t, err)
		assert.True(t, available)
		repo.AssertNotCalled(t, "CountOverlappingBookings", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CacheMissFillsCache", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)
		cache := new(mockCache)
		svc.cache = cache

		in, out := testDate(2026, 9, 7), testDate(2026, 9, 9)
		cache.On("GetAvailability", ctx, int64(7), in, out).Return(false, false, nil).Once()
		repo.On("CountOverlappingBookings", ctx, int64(7), in, out, int64(0)).Return(1, nil).Once()
		cache.On("SetAvailability", ctx, int64(7), in, out, false).Return(nil).Once()

		available, err := svc.IsRoomAvailable(ctx, 7, in, out)
		require.NoError(t, err)
		assert.False(t, available)
		cache.AssertExpectations(t)
	})

	t.Run("EmptyRange", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockEventBus)
		svc := newTestService(repo, bus)

		_, err := svc.IsRoomAvailable(ctx, 7, testDate(2026, 9, 9), testDate(2026, 9, 9))
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}
