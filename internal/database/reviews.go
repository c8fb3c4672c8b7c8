package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"innkeep/internal/models"
)

const reviewColumns = `id, user_id, hotel_id, booking_id, title, content, rating,
                 would_recommend, is_verified, created_at, updated_at`

func scanReview(row rowScanner) (*models.Review, error) {
	var (
		rv        models.Review
		bookingID sql.NullInt64
		title     sql.NullString
		recommend sql.NullBool
	)
	err := row.Scan(
		&rv.ID, &rv.UserID, &rv.HotelID, &bookingID, &title, &rv.Content, &rv.Rating,
		&recommend, &rv.IsVerified, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bookingID.Valid {
		id := bookingID.Int64
		rv.BookingID = &id
	}
	rv.Title = title.String
	if recommend.Valid {
		v := recommend.Bool
		rv.WouldRecommend = &v
	}
	return &rv, nil
}

func (db *DB) CreateReview(ctx context.Context, rv *models.Review) error {
	query := `INSERT INTO reviews (user_id, hotel_id, booking_id, title, content, rating,
                would_recommend, is_verified, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var bookingID any
	if rv.BookingID != nil {
		bookingID = *rv.BookingID
	}
	var recommend any
	if rv.WouldRecommend != nil {
		recommend = *rv.WouldRecommend
	}

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		rv.UserID, rv.HotelID, bookingID, rv.Title, rv.Content, rv.Rating,
		recommend, rv.IsVerified, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rv.ID = id
	rv.CreatedAt = now
	rv.UpdatedAt = now
	return nil
}

func (db *DB) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`
	rv, err := scanReview(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return rv, nil
}

func (db *DB) GetHotelReviews(ctx context.Context, hotelID int64) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE hotel_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := db.QueryContext(ctx, query, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel reviews: %w", err)
	}
	defer rows.Close()

	var result []*models.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		result = append(result, rv)
	}
	return result, rows.Err()
}

func (db *DB) UpdateReview(ctx context.Context, rv *models.Review) error {
	var recommend any
	if rv.WouldRecommend != nil {
		recommend = *rv.WouldRecommend
	}

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`UPDATE reviews SET title = ?, content = ?, rating = ?, would_recommend = ?, updated_at = ?
         WHERE id = ?`,
		rv.Title, rv.Content, rv.Rating, recommend, now, rv.ID)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	rv.UpdatedAt = now
	return nil
}

func (db *DB) DeleteReview(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
