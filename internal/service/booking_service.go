package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"innkeep/internal/config"
	"innkeep/internal/database"
	"innkeep/internal/domain"
	"innkeep/internal/events"
	"innkeep/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxReferenceAttempts = 5

// BookingService owns the booking lifecycle: creation with availability
// checking and pricing, the status state machine, cancellation with refund
// computation, and the no-show sweep. Domain errors are returned, never
// logged; only event-publish and cache failures are logged here.
type BookingService struct {
	repo     domain.Repository
	cache    domain.AvailabilityCache
	eventBus domain.EventPublisher
	cfg      config.BookingConfig
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.Repository, cache domain.AvailabilityCache, eventBus domain.EventPublisher, cfg config.BookingConfig, logger *zerolog.Logger) *BookingService {
	if cfg.MaxAdvanceDays <= 0 {
		cfg.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if cfg.CancellationHours <= 0 {
		cfg.CancellationHours = models.DefaultCancellationHours
	}
	if cfg.NoShowGraceHours <= 0 {
		cfg.NoShowGraceHours = models.DefaultNoShowGraceHours
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &BookingService{
		repo:     repo,
		cache:    cache,
		eventBus: eventBus,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// day normalizes to a UTC calendar instant at midnight. Booking dates carry
// no timezone ambiguity.
func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func (s *BookingService) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	checkIn := day(req.CheckInDate)
	checkOut := day(req.CheckOutDate)

	room, err := s.repo.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", req.RoomID, err)
	}

	if err := s.validateCreate(req, room, checkIn, checkOut); err != nil {
		return nil, err
	}

	// Advisory only: the storage layer repeats the overlap check inside the
	// insert transaction.
	available, err := s.IsRoomAvailable(ctx, room.ID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, database.ErrRoomNotAvailable
	}

	total := round2(room.PriceForStay(checkIn, checkOut))
	tax := round2(total * s.cfg.TaxRate)
	final := round2(total + tax - req.DiscountAmount)
	if final < 0 {
		return nil, invalidf("discount_amount", "discount exceeds the booking total")
	}

	booking := &models.Booking{
		UserID:          req.UserID,
		RoomID:          room.ID,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		Nights:          models.NightsBetween(checkIn, checkOut),
		GuestCount:      req.GuestCount,
		AdultCount:      req.AdultCount,
		ChildCount:      req.ChildCount,
		GuestFirstName:  req.GuestFirstName,
		GuestLastName:   req.GuestLastName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		SpecialRequests: req.SpecialRequests,
		EarlyCheckIn:    req.EarlyCheckIn,
		LateCheckOut:    req.LateCheckOut,
		RoomRate:        room.PricePerNight,
		TotalAmount:     total,
		TaxAmount:       tax,
		DiscountAmount:  req.DiscountAmount,
		FinalAmount:     final,
		Status:          models.StatusPending,
	}

	if err := s.persistWithReference(ctx, booking); err != nil {
		return nil, err
	}

	s.invalidateRoom(ctx, room.ID)
	s.publishEvent(events.EventBookingCreated, booking, 0)
	return booking, nil
}

func (s *BookingService) validateCreate(req models.CreateBookingRequest, room *models.Room, checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return invalidf("check_out_date", "must be after check-in date")
	}

	today := day(s.now())
	if checkIn.Before(today) {
		return invalidf("check_in_date", "must not be in the past")
	}
	if checkIn.After(today.AddDate(0, 0, s.cfg.MaxAdvanceDays)) {
		return invalidf("check_in_date", "must be within %d days", s.cfg.MaxAdvanceDays)
	}

	if req.AdultCount < 1 {
		return invalidf("adult_count", "at least one adult is required")
	}
	if req.ChildCount < 0 {
		return invalidf("child_count", "must not be negative")
	}
	if req.GuestCount != req.AdultCount+req.ChildCount {
		return invalidf("guest_count", "must equal adult_count + child_count")
	}
	if room.MaxOccupancy > 0 && req.GuestCount > room.MaxOccupancy {
		return invalidf("guest_count", "room sleeps at most %d guests", room.MaxOccupancy)
	}

	nights := models.NightsBetween(checkIn, checkOut)
	if room.MinNights > 0 && nights < room.MinNights {
		return invalidf("check_out_date", "minimum stay is %d nights", room.MinNights)
	}
	if room.MaxNights > 0 && nights > room.MaxNights {
		return invalidf("check_out_date", "maximum stay is %d nights", room.MaxNights)
	}

	if req.GuestFirstName == "" || req.GuestLastName == "" {
		return invalidf("guest_name", "guest first and last name are required")
	}
	if req.GuestEmail == "" {
		return invalidf("guest_email", "guest email is required")
	}
	if req.DiscountAmount < 0 {
		return invalidf("discount_amount", "must not be negative")
	}

	if !room.IsAvailable {
		return database.ErrRoomNotAvailable
	}
	return nil
}

func (s *BookingService) persistWithReference(ctx context.Context, booking *models.Booking) error {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		reference := newBookingReference(s.now())
		exists, err := s.repo.ReferenceExists(ctx, reference)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		booking.BookingReference = reference
		err = s.repo.CreateBookingWithLock(ctx, booking)
		if errors.Is(err, database.ErrDuplicateReference) {
			continue
		}
		return err
	}
	return database.ErrDuplicateReference
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	return s.repo.GetBookingByReference(ctx, reference)
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return s.repo.GetUserBookings(ctx, userID)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDateRange(ctx, day(from), day(to))
}

// IsRoomAvailable runs the half-open overlap test against confirmed and
// checked-in bookings. Pending and cancelled bookings reserve nothing.
func (s *BookingService) IsRoomAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	checkIn, checkOut = day(checkIn), day(checkOut)
	if !checkOut.After(checkIn) {
		return false, invalidf("check_out_date", "must be after check-in date")
	}

	if s.cache != nil {
		available, found, err := s.cache.GetAvailability(ctx, roomID, checkIn, checkOut)
		if err == nil && found {
			return available, nil
		}
	}

	count, err := s.repo.CountOverlappingBookings(ctx, roomID, checkIn, checkOut, 0)
	if err != nil {
		return false, err
	}
	available := count == 0

	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, roomID, checkIn, checkOut, available); err != nil {
			s.logger.Warn().Err(err).Int64("room_id", roomID).Msg("availability cache set failed")
		}
	}
	return available, nil
}

// IsRoomAvailableExcluding re-validates availability while ignoring one
// booking, for date-change flows. Bypasses the cache.
func (s *BookingService) IsRoomAvailableExcluding(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) (bool, error) {
	checkIn, checkOut = day(checkIn), day(checkOut)
	if !checkOut.After(checkIn) {
		return false, invalidf("check_out_date", "must be after check-in date")
	}
	count, err := s.repo.CountOverlappingBookings(ctx, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// RecordPayment writes a payment row and, when the payment succeeded against
// a pending booking, confirms it.
func (s *BookingService) RecordPayment(ctx context.Context, bookingID int64, amount float64, method models.PaymentMethod, succeeded bool) (*models.Payment, error) {
	if amount <= 0 {
		return nil, invalidf("amount", "must be positive")
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	payment := &models.Payment{
		BookingID:     booking.ID,
		TransactionID: uuid.NewString(),
		Amount:        amount,
		Currency:      s.cfg.Currency,
		Method:        method,
		Status:        models.PaymentFailed,
	}
	if succeeded {
		payment.Status = models.PaymentSucceeded
		payment.PaidAt = &now
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	s.publishEvent(events.EventPaymentRecorded, booking, 0)

	if succeeded && booking.Status == models.StatusPending {
		if err := s.repo.ConfirmBooking(ctx, booking.ID); err != nil {
			return nil, err
		}
		booking.Status = models.StatusConfirmed
		s.invalidateRoom(ctx, booking.RoomID)
		s.publishEvent(events.EventBookingConfirmed, booking, 0)
	}

	return payment, nil
}

// CancelBooking runs the cancellation guard, transitions to cancelled and
// records the refund owed under the 7/3/1-day policy.
func (s *BookingService) CancelBooking(ctx context.Context, id int64, reason models.CancellationReason, note string) (*models.Booking, error) {
	if !reason.Valid() {
		return nil, invalidf("cancellation_reason", "unknown reason %q", reason)
	}

	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(models.StatusCancelled) {
		return booking, &InvalidTransitionError{BookingID: id, From: booking.Status, To: models.StatusCancelled}
	}

	hours := s.cancellationHours(ctx, booking.RoomID)
	now := s.now()
	if !booking.CanCancelAt(now, hours) {
		return booking, &InvalidTransitionError{BookingID: id, From: booking.Status, To: models.StatusCancelled}
	}

	refund := booking.RefundAmountAt(now, hours)

	if err := s.repo.CancelBooking(ctx, id, reason, note, now); err != nil {
		return nil, err
	}

	if refund > 0 {
		payment := &models.Payment{
			BookingID:     id,
			TransactionID: uuid.NewString(),
			Amount:        refund,
			Currency:      s.cfg.Currency,
			Method:        models.MethodRefund,
			Status:        models.PaymentRefunded,
			PaidAt:        &now,
		}
		if err := s.repo.CreatePayment(ctx, payment); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", id).Msg("refund payment record failed")
		}
	}

	s.invalidateRoom(ctx, booking.RoomID)

	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingCancelled, updated, refund)
	return updated, nil
}

func (s *BookingService) cancellationHours(ctx context.Context, roomID int64) int {
	if room, err := s.repo.GetRoom(ctx, roomID); err == nil && room.CancellationHours > 0 {
		return room.CancellationHours
	}
	return s.cfg.CancellationHours
}

// CheckIn moves a confirmed booking to checked_in, stamping the actual
// check-in time.
func (s *BookingService) CheckIn(ctx context.Context, id int64, at *time.Time) (*models.Booking, error) {
	return s.transition(ctx, id, models.StatusConfirmed, models.StatusCheckedIn, at,
		s.repo.CheckInBooking, events.EventBookingCheckedIn)
}

// CheckOut moves a checked-in booking to checked_out, stamping the actual
// check-out time.
func (s *BookingService) CheckOut(ctx context.Context, id int64, at *time.Time) (*models.Booking, error) {
	return s.transition(ctx, id, models.StatusCheckedIn, models.StatusCheckedOut, at,
		s.repo.CheckOutBooking, events.EventBookingCheckedOut)
}

func (s *BookingService) transition(
	ctx context.Context,
	id int64,
	from, to models.BookingStatus,
	at *time.Time,
	apply func(context.Context, int64, time.Time) error,
	eventType string,
) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != from {
		return booking, &InvalidTransitionError{BookingID: id, From: booking.Status, To: to}
	}

	when := s.now()
	if at != nil {
		when = *at
	}
	if err := apply(ctx, id, when); err != nil {
		return nil, err
	}

	s.invalidateRoom(ctx, booking.RoomID)

	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(eventType, updated, 0)
	return updated, nil
}

// MarkNoShow transitions a confirmed booking whose check-in date has passed
// without a check-in. Administrative operation; the sweeper batches it.
func (s *BookingService) MarkNoShow(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusConfirmed || s.now().Before(booking.CheckInDate) {
		return booking, &InvalidTransitionError{BookingID: id, From: booking.Status, To: models.StatusNoShow}
	}

	if err := s.repo.MarkNoShow(ctx, id); err != nil {
		return nil, err
	}

	s.invalidateRoom(ctx, booking.RoomID)

	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingNoShow, updated, 0)
	return updated, nil
}

// SweepNoShows marks every confirmed booking whose check-in date is more
// than the grace window in the past. Returns the number of bookings marked.
func (s *BookingService) SweepNoShows(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-time.Duration(s.cfg.NoShowGraceHours) * time.Hour)
	candidates, err := s.repo.GetNoShowCandidates(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, booking := range candidates {
		if err := s.repo.MarkNoShow(ctx, booking.ID); err != nil {
			// Lost a race with a check-in or another sweeper; skip.
			if errors.Is(err, database.ErrConcurrentModification) {
				continue
			}
			return marked, err
		}
		marked++
		s.invalidateRoom(ctx, booking.RoomID)
		booking.Status = models.StatusNoShow
		s.publishEvent(events.EventBookingNoShow, booking, 0)
	}
	return marked, nil
}

func (s *BookingService) invalidateRoom(ctx context.Context, roomID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRoom(ctx, roomID); err != nil {
		s.logger.Warn().Err(err).Int64("room_id", roomID).Msg("availability cache invalidation failed")
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, refund float64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:    booking.ID,
		Reference:    booking.BookingReference,
		UserID:       booking.UserID,
		RoomID:       booking.RoomID,
		Status:       booking.Status,
		CheckInDate:  booking.CheckInDate,
		CheckOutDate: booking.CheckOutDate,
		FinalAmount:  booking.FinalAmount,
		RefundAmount: refund,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
