package service

import (
	"context"
	"time"

	"innkeep/internal/domain"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
)

const maxCalendarDays = 90

// RoomService is the read side over hotels and rooms, including the
// per-night availability calendar.
type RoomService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewRoomService(repo domain.Repository, logger *zerolog.Logger) *RoomService {
	return &RoomService{repo: repo, logger: logger}
}

func (s *RoomService) ListHotels(ctx context.Context) ([]*models.Hotel, error) {
	return s.repo.ListHotels(ctx)
}

func (s *RoomService) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	return s.repo.GetHotel(ctx, id)
}

func (s *RoomService) GetHotelRooms(ctx context.Context, hotelID int64) ([]*models.Room, error) {
	return s.repo.GetHotelRooms(ctx, hotelID)
}

func (s *RoomService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return s.repo.GetRoom(ctx, id)
}

// GetRoomCalendar returns one entry per night starting at from. A night is
// unavailable when a confirmed or checked-in booking covers it, or when the
// room is administratively closed.
func (s *RoomService) GetRoomCalendar(ctx context.Context, roomID int64, from time.Time, days int) ([]models.Availability, error) {
	if days < 1 {
		return nil, invalidf("days", "must be at least 1")
	}
	if days > maxCalendarDays {
		return nil, invalidf("days", "must be at most %d", maxCalendarDays)
	}

	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	start := day(from)
	end := start.AddDate(0, 0, days)
	bookings, err := s.repo.GetRoomBookings(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}

	calendar := make([]models.Availability, 0, days)
	for night := start; night.Before(end); night = night.AddDate(0, 0, 1) {
		available := room.IsAvailable
		if available {
			for _, b := range bookings {
				if b.BlocksAvailability() && b.Overlaps(night, night.AddDate(0, 0, 1)) {
					available = false
					break
				}
			}
		}
		calendar = append(calendar, models.Availability{Date: night, RoomID: roomID, Available: available})
	}
	return calendar, nil
}
