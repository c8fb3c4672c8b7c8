package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"innkeep/internal/models"
)

const roomColumns = `id, hotel_id, room_number, name, description, room_type, bed_type,
                 max_occupancy, price_per_night, weekend_price, is_available,
                 min_nights, max_nights, cancellation_hours, created_at, updated_at`

func scanRoom(row rowScanner) (*models.Room, error) {
	var (
		r    models.Room
		desc sql.NullString
	)
	err := row.Scan(
		&r.ID, &r.HotelID, &r.RoomNumber, &r.Name, &desc, &r.RoomType, &r.BedType,
		&r.MaxOccupancy, &r.PricePerNight, &r.WeekendPrice, &r.IsAvailable,
		&r.MinNights, &r.MaxNights, &r.CancellationHours, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Description = desc.String
	return &r, nil
}

func (db *DB) CreateRoom(ctx context.Context, r *models.Room) error {
	if r.MinNights <= 0 {
		r.MinNights = models.DefaultMinNights
	}
	if r.MaxNights <= 0 {
		r.MaxNights = models.DefaultMaxNights
	}
	if r.CancellationHours <= 0 {
		r.CancellationHours = models.DefaultCancellationHours
	}

	query := `INSERT INTO rooms (
				hotel_id, room_number, name, description, room_type, bed_type,
				max_occupancy, price_per_night, weekend_price, is_available,
				min_nights, max_nights, cancellation_hours, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		r.HotelID, r.RoomNumber, r.Name, r.Description, r.RoomType, r.BedType,
		r.MaxOccupancy, r.PricePerNight, r.WeekendPrice, r.IsAvailable,
		r.MinNights, r.MaxNights, r.CancellationHours, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	r, err := scanRoom(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return r, nil
}

func (db *DB) GetHotelRooms(ctx context.Context, hotelID int64) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE hotel_id = ? ORDER BY room_number`
	rows, err := db.QueryContext(ctx, query, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel rooms: %w", err)
	}
	defer rows.Close()

	var result []*models.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// SetRoomAvailabilityFlag flips the administrative availability flag. It is
// independent of date-based booking availability.
func (db *DB) SetRoomAvailabilityFlag(ctx context.Context, id int64, available bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE rooms SET is_available = ?, updated_at = ? WHERE id = ?`,
		available, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update room availability flag: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
