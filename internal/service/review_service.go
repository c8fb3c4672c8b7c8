package service

import (
	"context"
	"strings"

	"innkeep/internal/models"

	"github.com/rs/zerolog"
)

// reviewRepository is the storage slice the review service needs.
type reviewRepository interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	GetHotelReviews(ctx context.Context, hotelID int64) ([]*models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id int64) error
	GetHotel(ctx context.Context, id int64) (*models.Hotel, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
}

// ReviewService handles guest feedback on hotels.
type ReviewService struct {
	repo   reviewRepository
	logger *zerolog.Logger
}

func NewReviewService(repo reviewRepository, logger *zerolog.Logger) *ReviewService {
	return &ReviewService{repo: repo, logger: logger}
}

// CreateReview validates and stores a review. When the request names a
// booking, the stay must belong to the reviewer, be checked out, and be at
// the reviewed hotel; the review is then marked verified.
func (s *ReviewService) CreateReview(ctx context.Context, req models.CreateReviewRequest) (*models.Review, error) {
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalidf("content", "is required")
	}

	if _, err := s.repo.GetHotel(ctx, req.HotelID); err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:         req.UserID,
		HotelID:        req.HotelID,
		BookingID:      req.BookingID,
		Title:          strings.TrimSpace(req.Title),
		Content:        strings.TrimSpace(req.Content),
		Rating:         req.Rating,
		WouldRecommend: req.WouldRecommend,
	}

	if req.BookingID != nil {
		verified, err := s.verifyStay(ctx, req.UserID, req.HotelID, *req.BookingID)
		if err != nil {
			return nil, err
		}
		review.IsVerified = verified
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("review_id", review.ID).
		Int64("hotel_id", review.HotelID).
		Bool("verified", review.IsVerified).
		Msg("review created")
	return review, nil
}

// verifyStay checks that the booking is the reviewer's own checked-out stay
// at the reviewed hotel.
func (s *ReviewService) verifyStay(ctx context.Context, userID, hotelID, bookingID int64) (bool, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if booking.UserID != userID {
		return false, invalidf("booking_id", "booking does not belong to the reviewer")
	}
	if booking.Status != models.StatusCheckedOut {
		return false, invalidf("booking_id", "only completed stays can be reviewed")
	}

	room, err := s.repo.GetRoom(ctx, booking.RoomID)
	if err != nil {
		return false, err
	}
	if room.HotelID != hotelID {
		return false, invalidf("booking_id", "booking is for a different hotel")
	}
	return true, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	return s.repo.GetReview(ctx, id)
}

func (s *ReviewService) GetHotelReviews(ctx context.Context, hotelID int64) ([]*models.Review, error) {
	if _, err := s.repo.GetHotel(ctx, hotelID); err != nil {
		return nil, err
	}
	return s.repo.GetHotelReviews(ctx, hotelID)
}

// UpdateReview applies the non-nil fields of req. Only the author or an
// admin may edit; verification status never changes on edit.
func (s *ReviewService) UpdateReview(ctx context.Context, userID int64, admin bool, id int64, req models.UpdateReviewRequest) (*models.Review, error) {
	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && review.UserID != userID {
		return nil, ErrNotOwner
	}

	if req.Title != nil {
		review.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, invalidf("content", "is required")
		}
		review.Content = content
	}
	if req.Rating != nil {
		if err := validateRating(*req.Rating); err != nil {
			return nil, err
		}
		review.Rating = *req.Rating
	}
	if req.WouldRecommend != nil {
		review.WouldRecommend = req.WouldRecommend
	}

	if err := s.repo.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, userID int64, admin bool, id int64) error {
	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if !admin && review.UserID != userID {
		return ErrNotOwner
	}

	if err := s.repo.DeleteReview(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("review_id", id).Msg("review deleted")
	return nil
}

func validateRating(rating float64) error {
	if rating < models.MinReviewRating || rating > models.MaxReviewRating {
		return invalidf("rating", "must be between %.0f and %.0f", models.MinReviewRating, models.MaxReviewRating)
	}
	return nil
}
