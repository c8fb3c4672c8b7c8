package models

import "time"

// CreateBookingRequest carries everything needed to open a booking in
// pending state. GuestCount must equal AdultCount + ChildCount.
type CreateBookingRequest struct {
	UserID int64     `json:"-"`
	RoomID int64     `json:"room_id"`

	CheckInDate  time.Time `json:"check_in_date"`
	CheckOutDate time.Time `json:"check_out_date"`

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

	DiscountAmount float64 `json:"discount_amount"`
}

// CreateReviewRequest opens a review against a hotel. BookingID is optional;
// when it names the reviewer's own checked-out stay at that hotel the review
// comes out verified.
type CreateReviewRequest struct {
	UserID    int64  `json:"-"`
	HotelID   int64  `json:"hotel_id"`
	BookingID *int64 `json:"booking_id,omitempty"`

	Title   string  `json:"title,omitempty"`
	Content string  `json:"content"`
	Rating  float64 `json:"rating"`

	WouldRecommend *bool `json:"would_recommend,omitempty"`
}

// UpdateReviewRequest patches a review. Nil fields are left unchanged.
type UpdateReviewRequest struct {
	Title          *string  `json:"title,omitempty"`
	Content        *string  `json:"content,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	WouldRecommend *bool    `json:"would_recommend,omitempty"`
}
