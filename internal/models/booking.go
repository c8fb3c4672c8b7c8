package models

import "time"

// BookingStatus is a closed set of booking lifecycle states. Transitions
// between states go through the transition table below, never through raw
// status writes.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusCheckedIn  BookingStatus = "checked_in"
	StatusCheckedOut BookingStatus = "checked_out"
	StatusCancelled  BookingStatus = "cancelled"
	StatusNoShow     BookingStatus = "no_show"
)

// transitions maps each state to the states reachable from it.
// checked_out, cancelled and no_show are terminal.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {StatusCheckedOut},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s BookingStatus) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

type CancellationReason string

const (
	CancelUserRequested    CancellationReason = "user_requested"
	CancelPaymentFailed    CancellationReason = "payment_failed"
	CancelHotelUnavailable CancellationReason = "hotel_unavailable"
	CancelSystemError      CancellationReason = "system_error"
	CancelOther            CancellationReason = "other"
)

func (r CancellationReason) Valid() bool {
	switch r {
	case CancelUserRequested, CancelPaymentFailed, CancelHotelUnavailable, CancelSystemError, CancelOther:
		return true
	}
	return false
}

type Booking struct {
	ID               int64  `json:"id"`
	BookingReference string `json:"booking_reference"`
	UserID           int64  `json:"user_id"`
	RoomID           int64  `json:"room_id"`

	CheckInDate  time.Time `json:"check_in_date"`
	CheckOutDate time.Time `json:"check_out_date"`
	Nights       int       `json:"nights"`

	GuestCount int `json:"guest_count"`
	AdultCount int `json:"adult_count"`
	ChildCount int `json:"child_count"`

	GuestFirstName string `json:"guest_first_name"`
	GuestLastName  string `json:"guest_last_name"`
	GuestEmail     string `json:"guest_email"`
	GuestPhone     string `json:"guest_phone,omitempty"`

	SpecialRequests string `json:"special_requests,omitempty"`
	EarlyCheckIn    bool   `json:"early_check_in"`
	LateCheckOut    bool   `json:"late_check_out"`

	RoomRate       float64 `json:"room_rate"`
	TotalAmount    float64 `json:"total_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`

	Status BookingStatus `json:"status"`

	IsCancelled        bool               `json:"is_cancelled"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason CancellationReason `json:"cancellation_reason,omitempty"`
	CancellationNote   string             `json:"cancellation_note,omitempty"`

	ActualCheckIn  *time.Time `json:"actual_check_in,omitempty"`
	ActualCheckOut *time.Time `json:"actual_check_out,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// IsActive reports whether the booking still occupies or may occupy the room.
func (b *Booking) IsActive() bool {
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}

// BlocksAvailability reports whether the booking holds its room against
// other bookings. Pending bookings reserve nothing until paid.
func (b *Booking) BlocksAvailability() bool {
	return b.Status == StatusConfirmed || b.Status == StatusCheckedIn
}

// Overlaps applies the half-open interval test against another date range.
// A stay ending exactly when another begins is not an overlap.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckInDate.Before(checkOut) && b.CheckOutDate.After(checkIn)
}

// CanCancelAt reports whether cancellation is permitted at the given moment.
// cancellationHours is the room's policy window before check-in; values <= 0
// fall back to 24 hours.
func (b *Booking) CanCancelAt(now time.Time, cancellationHours int) bool {
	if b.IsCancelled || b.Status == StatusCheckedOut || b.Status == StatusNoShow {
		return false
	}
	if cancellationHours <= 0 {
		cancellationHours = DefaultCancellationHours
	}
	deadline := b.CheckInDate.Add(-time.Duration(cancellationHours) * time.Hour)
	return now.Before(deadline)
}

// DaysUntilCheckInAt returns whole days remaining before check-in, never
// negative.
func (b *Booking) DaysUntilCheckInAt(now time.Time) int {
	delta := b.CheckInDate.Sub(now)
	if delta <= 0 {
		return 0
	}
	return int(delta.Hours() / 24)
}

// RefundAmountAt computes the refund owed if the booking were cancelled at
// the given moment. The thresholds are deliberately independent of the
// cancellation window: a permitted cancellation can still refund zero.
func (b *Booking) RefundAmountAt(now time.Time, cancellationHours int) float64 {
	if !b.CanCancelAt(now, cancellationHours) {
		return 0
	}

	switch days := b.DaysUntilCheckInAt(now); {
	case days >= 7:
		return b.FinalAmount
	case days >= 3:
		return b.FinalAmount * 0.5
	case days >= 1:
		return b.FinalAmount * 0.25
	default:
		return 0
	}
}

// NightsBetween counts calendar nights in the half-open range [in, out).
func NightsBetween(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}
