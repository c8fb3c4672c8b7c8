package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"innkeep/internal/models"
)

const hotelColumns = `id, name, description, address, city, country, stars, is_active, created_at, updated_at`

func scanHotel(row rowScanner) (*models.Hotel, error) {
	var (
		h    models.Hotel
		desc sql.NullString
	)
	err := row.Scan(
		&h.ID, &h.Name, &desc, &h.Address, &h.City, &h.Country,
		&h.Stars, &h.IsActive, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.Description = desc.String
	return &h, nil
}

func (db *DB) CreateHotel(ctx context.Context, h *models.Hotel) error {
	query := `INSERT INTO hotels (name, description, address, city, country, stars, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		h.Name, h.Description, h.Address, h.City, h.Country, h.Stars, h.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	h.ID = id
	h.CreatedAt = now
	h.UpdatedAt = now
	return nil
}

func (db *DB) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	query := `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`
	h, err := scanHotel(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	return h, nil
}

func (db *DB) ListHotels(ctx context.Context) ([]*models.Hotel, error) {
	query := `SELECT ` + hotelColumns + ` FROM hotels WHERE is_active = 1 ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hotels: %w", err)
	}
	defer rows.Close()

	var hotels []*models.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		hotels = append(hotels, h)
	}
	return hotels, rows.Err()
}
