package models

import "time"

type RoomType string

const (
	RoomSingle       RoomType = "single"
	RoomDouble       RoomType = "double"
	RoomTwin         RoomType = "twin"
	RoomSuite        RoomType = "suite"
	RoomDeluxe       RoomType = "deluxe"
	RoomPresidential RoomType = "presidential"
	RoomFamily       RoomType = "family"
)

type BedType string

const (
	BedSingle  BedType = "single"
	BedDouble  BedType = "double"
	BedQueen   BedType = "queen"
	BedKing    BedType = "king"
	BedSofaBed BedType = "sofa_bed"
)

type Room struct {
	ID          int64    `json:"id" yaml:"id"`
	HotelID     int64    `json:"hotel_id" yaml:"hotel_id"`
	RoomNumber  string   `json:"room_number" yaml:"room_number"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description"`
	RoomType    RoomType `json:"room_type" yaml:"room_type"`
	BedType     BedType  `json:"bed_type" yaml:"bed_type"`

	MaxOccupancy int `json:"max_occupancy" yaml:"max_occupancy"`

	PricePerNight float64 `json:"price_per_night" yaml:"price_per_night"`
	// WeekendPrice overrides the Saturday/Sunday nightly rate when > 0.
	WeekendPrice float64 `json:"weekend_price,omitempty" yaml:"weekend_price"`

	// IsAvailable is the administrative flag, independent of date-based
	// booking availability.
	IsAvailable bool `json:"is_available" yaml:"is_available"`

	MinNights         int `json:"min_nights" yaml:"min_nights"`
	MaxNights         int `json:"max_nights" yaml:"max_nights"`
	CancellationHours int `json:"cancellation_hours" yaml:"cancellation_hours"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// NightlyRate returns the rate charged for the night starting on the given
// date. Saturday and Sunday nights use WeekendPrice when set, otherwise the
// base price with the default weekend markup.
func (r *Room) NightlyRate(night time.Time) float64 {
	switch night.Weekday() {
	case time.Saturday, time.Sunday:
		if r.WeekendPrice > 0 {
			return r.WeekendPrice
		}
		return r.PricePerNight * WeekendMarkup
	default:
		return r.PricePerNight
	}
}

// PriceForStay sums nightly rates over the half-open range [checkIn,
// checkOut). The caller is responsible for rejecting empty ranges before
// pricing.
func (r *Room) PriceForStay(checkIn, checkOut time.Time) float64 {
	var total float64
	for night := checkIn; night.Before(checkOut); night = night.AddDate(0, 0, 1) {
		total += r.NightlyRate(night)
	}
	return total
}

// Availability describes one night of a room's calendar.
type Availability struct {
	Date      time.Time `json:"date"`
	RoomID    int64     `json:"room_id"`
	Available bool      `json:"available"`
}
