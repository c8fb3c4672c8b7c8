package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"innkeep/internal/models"
)

const bookingColumns = `id, booking_reference, user_id, room_id,
                 check_in_date, check_out_date, nights,
                 guest_count, adult_count, child_count,
                 guest_first_name, guest_last_name, guest_email, guest_phone,
                 special_requests, early_check_in, late_check_out,
                 room_rate, total_amount, tax_amount, discount_amount, final_amount,
                 status, is_cancelled, cancelled_at, cancellation_reason, cancellation_note,
                 actual_check_in, actual_check_out,
                 created_at, updated_at, version`

// overlapCondition is the half-open interval test: a stay ending exactly
// when another begins does not conflict. Only confirmed and checked-in
// bookings hold the room.
const overlapCondition = `room_id = ?
              AND status IN (?, ?)
              AND check_in_date < ?
              AND check_out_date > ?`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b                        models.Booking
		checkIn, checkOut        string
		phone, requests          sql.NullString
		cancelReason, cancelNote sql.NullString
		cancelledAt              sql.NullTime
		actualIn, actualOut      sql.NullTime
	)

	err := row.Scan(
		&b.ID, &b.BookingReference, &b.UserID, &b.RoomID,
		&checkIn, &checkOut, &b.Nights,
		&b.GuestCount, &b.AdultCount, &b.ChildCount,
		&b.GuestFirstName, &b.GuestLastName, &b.GuestEmail, &phone,
		&requests, &b.EarlyCheckIn, &b.LateCheckOut,
		&b.RoomRate, &b.TotalAmount, &b.TaxAmount, &b.DiscountAmount, &b.FinalAmount,
		&b.Status, &b.IsCancelled, &cancelledAt, &cancelReason, &cancelNote,
		&actualIn, &actualOut,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	if b.CheckInDate, err = time.ParseInLocation(dateLayout, checkIn, time.UTC); err != nil {
		return nil, fmt.Errorf("failed to parse check-in date %s: %w", checkIn, err)
	}
	if b.CheckOutDate, err = time.ParseInLocation(dateLayout, checkOut, time.UTC); err != nil {
		return nil, fmt.Errorf("failed to parse check-out date %s: %w", checkOut, err)
	}

	b.GuestPhone = phone.String
	b.SpecialRequests = requests.String
	b.CancellationReason = models.CancellationReason(cancelReason.String)
	b.CancellationNote = cancelNote.String
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	if actualIn.Valid {
		t := actualIn.Time
		b.ActualCheckIn = &t
	}
	if actualOut.Valid {
		t := actualOut.Time
		b.ActualCheckOut = &t
	}
	return &b, nil
}

func (db *DB) insertBooking(ctx context.Context, exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, b *models.Booking) error {
	query := `INSERT INTO bookings (
				booking_reference, user_id, room_id,
				check_in_date, check_out_date, nights,
				guest_count, adult_count, child_count,
				guest_first_name, guest_last_name, guest_email, guest_phone,
				special_requests, early_check_in, late_check_out,
				room_rate, total_amount, tax_amount, discount_amount, final_amount,
				status, created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	result, err := exec.ExecContext(ctx, query,
		b.BookingReference, b.UserID, b.RoomID,
		b.CheckInDate.Format(dateLayout), b.CheckOutDate.Format(dateLayout), b.Nights,
		b.GuestCount, b.AdultCount, b.ChildCount,
		b.GuestFirstName, b.GuestLastName, b.GuestEmail, b.GuestPhone,
		b.SpecialRequests, b.EarlyCheckIn, b.LateCheckOut,
		b.RoomRate, b.TotalAmount, b.TaxAmount, b.DiscountAmount, b.FinalAmount,
		b.Status, now, now, 1,
	)
	if err != nil {
		if strings.Contains(err.Error(), "bookings.booking_reference") {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Version = 1
	return nil
}

// CreateBooking inserts a booking without re-validating availability. The
// lifecycle service goes through CreateBookingWithLock instead.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	return db.insertBooking(ctx, db.DB, b)
}

// CreateBookingWithLock re-runs the overlap check inside the insert
// transaction, so the advisory availability check done by the caller cannot
// race another writer into a double booking.
func (db *DB) CreateBookingWithLock(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var conflicts int
	query := `SELECT COUNT(*) FROM bookings WHERE ` + overlapCondition
	err = tx.QueryRowContext(ctx, query,
		b.RoomID, models.StatusConfirmed, models.StatusCheckedIn,
		b.CheckOutDate.Format(dateLayout), b.CheckInDate.Format(dateLayout),
	).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if conflicts > 0 {
		return ErrRoomNotAvailable
	}

	if err := db.insertBooking(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (db *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_reference = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by reference: %w", err)
	}
	return b, nil
}

func (db *DB) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE booking_reference = ?`, reference).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check reference: %w", err)
	}
	return count > 0, nil
}

// CountOverlappingBookings counts confirmed/checked-in bookings whose stay
// intersects [checkIn, checkOut) for the room. excludeID > 0 skips one
// booking, for re-validation during updates.
func (db *DB) CountOverlappingBookings(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE ` + overlapCondition
	args := []any{roomID, models.StatusConfirmed, models.StatusCheckedIn,
		checkOut.Format(dateLayout), checkIn.Format(dateLayout)}
	if excludeID > 0 {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return count, nil
}

// FindOverlappingBookings returns the conflicting bookings themselves,
// ordered by check-in date.
func (db *DB) FindOverlappingBookings(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + overlapCondition
	args := []any{roomID, models.StatusConfirmed, models.StatusCheckedIn,
		checkOut.Format(dateLayout), checkIn.Format(dateLayout)}
	if excludeID > 0 {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	query += ` ORDER BY check_in_date`

	return db.queryBookings(ctx, query, args...)
}

func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, userID)
}

// GetRoomBookings returns active bookings touching [from, to) for a room.
func (db *DB) GetRoomBookings(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + overlapCondition + ` ORDER BY check_in_date`
	return db.queryBookings(ctx, query,
		roomID, models.StatusConfirmed, models.StatusCheckedIn,
		to.Format(dateLayout), from.Format(dateLayout))
}

// GetBookingsByDateRange returns all bookings whose check-in falls within
// [from, to], for reporting.
func (db *DB) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE check_in_date >= ? AND check_in_date <= ?
              ORDER BY check_in_date, created_at`
	return db.queryBookings(ctx, query, from.Format(dateLayout), to.Format(dateLayout))
}

// GetNoShowCandidates returns confirmed bookings whose check-in date is
// before the cutoff and that were never checked in.
func (db *DB) GetNoShowCandidates(ctx context.Context, cutoff time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE status = ? AND check_in_date < ? AND actual_check_in IS NULL
              ORDER BY check_in_date`
	return db.queryBookings(ctx, query, models.StatusConfirmed, cutoff.Format(dateLayout))
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// The transition updates below put the state precondition in the WHERE
// clause, so a transition commits only if the booking is still in the
// expected state. Zero rows affected means another writer got there first.

func (db *DB) ConfirmBooking(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND status = ?`
	return db.conditionalUpdate(ctx, query, models.StatusConfirmed, time.Now().UTC(), id, models.StatusPending)
}

func (db *DB) CheckInBooking(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE bookings SET status = ?, actual_check_in = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND status = ?`
	return db.conditionalUpdate(ctx, query, models.StatusCheckedIn, at, time.Now().UTC(), id, models.StatusConfirmed)
}

func (db *DB) CheckOutBooking(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE bookings SET status = ?, actual_check_out = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND status = ?`
	return db.conditionalUpdate(ctx, query, models.StatusCheckedOut, at, time.Now().UTC(), id, models.StatusCheckedIn)
}

func (db *DB) CancelBooking(ctx context.Context, id int64, reason models.CancellationReason, note string, at time.Time) error {
	query := `UPDATE bookings SET status = ?, is_cancelled = 1, cancelled_at = ?,
                  cancellation_reason = ?, cancellation_note = ?,
                  version = version + 1, updated_at = ?
              WHERE id = ? AND status IN (?, ?)`
	return db.conditionalUpdate(ctx, query,
		models.StatusCancelled, at, reason, note, time.Now().UTC(),
		id, models.StatusPending, models.StatusConfirmed)
}

func (db *DB) MarkNoShow(ctx context.Context, id int64) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND status = ?`
	return db.conditionalUpdate(ctx, query, models.StatusNoShow, time.Now().UTC(), id, models.StatusConfirmed)
}

func (db *DB) conditionalUpdate(ctx context.Context, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// DeleteBooking hard-deletes a booking and, via the cascade, its payments.
// Administrative escape hatch only; normal flow cancels instead.
func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
