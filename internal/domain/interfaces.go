package domain

import (
	"context"
	"time"

	"innkeep/internal/models"
)

// Repository is the storage contract for the lifecycle and catalog services.
// The SQLite implementation lives in internal/database.
type Repository interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	CountOverlappingBookings(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) (int, error)
	FindOverlappingBookings(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	GetRoomBookings(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error)
	GetNoShowCandidates(ctx context.Context, cutoff time.Time) ([]*models.Booking, error)

	ConfirmBooking(ctx context.Context, id int64) error
	CheckInBooking(ctx context.Context, id int64, at time.Time) error
	CheckOutBooking(ctx context.Context, id int64, at time.Time) error
	CancelBooking(ctx context.Context, id int64, reason models.CancellationReason, note string, at time.Time) error
	MarkNoShow(ctx context.Context, id int64) error
	DeleteBooking(ctx context.Context, id int64) error

	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetHotelRooms(ctx context.Context, hotelID int64) ([]*models.Room, error)
	GetHotel(ctx context.Context, id int64) (*models.Hotel, error)
	ListHotels(ctx context.Context) ([]*models.Hotel, error)

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetBookingPayments(ctx context.Context, bookingID int64) ([]*models.Payment, error)
}

// AvailabilityCache memoizes date-range availability per room and tracks
// per-client rate limits. Implementations may lose entries at any time.
type AvailabilityCache interface {
	GetAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (available bool, found bool, err error)
	SetAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time, available bool) error
	InvalidateRoom(ctx context.Context, roomID int64) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// BookingLifecycle is the surface the route layer and the no-show sweeper
// consume.
type BookingLifecycle interface {
	CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	RecordPayment(ctx context.Context, bookingID int64, amount float64, method models.PaymentMethod, succeeded bool) (*models.Payment, error)
	CancelBooking(ctx context.Context, id int64, reason models.CancellationReason, note string) (*models.Booking, error)
	CheckIn(ctx context.Context, id int64, at *time.Time) (*models.Booking, error)
	CheckOut(ctx context.Context, id int64, at *time.Time) (*models.Booking, error)
	MarkNoShow(ctx context.Context, id int64) (*models.Booking, error)
	SweepNoShows(ctx context.Context) (int, error)
	IsRoomAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error)
	GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error)
}

// Catalog is the read-side surface over hotels and rooms.
type Catalog interface {
	ListHotels(ctx context.Context) ([]*models.Hotel, error)
	GetHotel(ctx context.Context, id int64) (*models.Hotel, error)
	GetHotelRooms(ctx context.Context, hotelID int64) ([]*models.Room, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetRoomCalendar(ctx context.Context, roomID int64, from time.Time, days int) ([]models.Availability, error)
}

// Reviews is the guest-feedback surface. Ownership checks live behind it;
// callers pass who is asking.
type Reviews interface {
	CreateReview(ctx context.Context, req models.CreateReviewRequest) (*models.Review, error)
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	GetHotelReviews(ctx context.Context, hotelID int64) ([]*models.Review, error)
	UpdateReview(ctx context.Context, userID int64, admin bool, id int64, req models.UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, userID int64, admin bool, id int64) error
}

// UserDirectory handles registration and credential checks.
type UserDirectory interface {
	Register(ctx context.Context, email, password, firstName, lastName, phone string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}
