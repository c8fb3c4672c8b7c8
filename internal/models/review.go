package models

import "time"

const (
	MinReviewRating = 1.0
	MaxReviewRating = 5.0
)

// Review is guest feedback on a hotel. A review tied to the reviewer's own
// checked-out booking is marked verified.
type Review struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	HotelID   int64  `json:"hotel_id"`
	BookingID *int64 `json:"booking_id,omitempty"`

	Title   string  `json:"title,omitempty"`
	Content string  `json:"content"`
	Rating  float64 `json:"rating"`

	WouldRecommend *bool `json:"would_recommend,omitempty"`
	IsVerified     bool  `json:"is_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
