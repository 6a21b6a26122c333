package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/room-reservation/internal/model"
)

// BookingRepo reads and writes the 'bookings' table.  Methods with a
// Tx suffix run inside a caller-owned transaction; everything that
// changes whether a booking blocks its interval must go through one,
// after the room row lock has been taken.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingColumns = `id, user_id, room_id, booking_date, start_time, end_time,
 guest_count, total_amount, number_of_slots, status, payment_status,
 special_requests, hold_expires_at, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
    var (
        b       model.Booking
        special sql.NullString
        hold    sql.NullTime
    )
    err := row.Scan(&b.ID, &b.UserID, &b.RoomID, &b.BookingDate, &b.StartTime, &b.EndTime,
        &b.GuestCount, &b.TotalAmount, &b.NumberOfSlots, &b.Status, &b.PaymentStatus,
        &special, &hold, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if special.Valid {
        b.SpecialRequests = &special.String
    }
    if hold.Valid {
        t := hold.Time.UTC()
        b.HoldExpiresAt = &t
    }
    return &b, nil
}

// CreateTx inserts the booking inside tx and sets its ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings
		  (user_id, room_id, booking_date, start_time, end_time, guest_count,
		   total_amount, number_of_slots, status, payment_status,
		   special_requests, hold_expires_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
        b.UserID, b.RoomID, b.BookingDate, b.StartTime, b.EndTime, b.GuestCount,
        b.TotalAmount, b.NumberOfSlots, b.Status, b.PaymentStatus,
        b.SpecialRequests, b.HoldExpiresAt)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// BlockingTx lists the room's pending and confirmed bookings for one
// date, inside tx, in stable insertion order.  Called after the room
// row lock is held so the snapshot cannot go stale before commit.
func (r *BookingRepo) BlockingTx(ctx context.Context, tx *sql.Tx, roomID uint64, date string) ([]model.Booking, error) {
    rows, err := tx.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE room_id=? AND booking_date=? AND status IN ('pending','confirmed')
		ORDER BY created_at, id`,
        roomID, date)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.Booking
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    return out, rows.Err()
}

// GetByID fetches one booking, or (nil, nil) when it does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    b, err := scanBooking(r.DB.QueryRowContext(ctx,
        "SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    return b, err
}

// GetByIDTx is GetByID inside a caller-owned transaction.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    b, err := scanBooking(tx.QueryRowContext(ctx,
        "SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    return b, err
}

const bookingDetailQuery = `
	SELECT b.id, b.user_id, b.room_id, b.booking_date, b.start_time, b.end_time,
	       b.guest_count, b.total_amount, b.number_of_slots, b.status, b.payment_status,
	       b.special_requests, b.hold_expires_at, b.created_at, b.updated_at,
	       u.email, u.email, r.name
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN rooms r ON r.id = b.room_id`

func scanBookingDetail(row interface{ Scan(...any) error }) (*model.BookingDetail, error) {
    var (
        d       model.BookingDetail
        special sql.NullString
        hold    sql.NullTime
    )
    err := row.Scan(&d.ID, &d.UserID, &d.RoomID, &d.BookingDate, &d.StartTime, &d.EndTime,
        &d.GuestCount, &d.TotalAmount, &d.NumberOfSlots, &d.Status, &d.PaymentStatus,
        &special, &hold, &d.CreatedAt, &d.UpdatedAt,
        &d.UserName, &d.UserEmail, &d.RoomName)
    if err != nil {
        return nil, err
    }
    if special.Valid {
        d.SpecialRequests = &special.String
    }
    if hold.Valid {
        t := hold.Time.UTC()
        d.HoldExpiresAt = &t
    }
    return &d, nil
}

// GetDetail fetches one booking joined with its user and room display
// fields, or (nil, nil) when it does not exist.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
    d, err := scanBookingDetail(r.DB.QueryRowContext(ctx,
        bookingDetailQuery+" WHERE b.id=? LIMIT 1", id))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    return d, err
}

// ListDetails lists bookings with display fields, newest first.  When
// userID is non-zero the list is restricted to that user.
func (r *BookingRepo) ListDetails(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
    q := bookingDetailQuery
    args := []any{}
    if userID != 0 {
        q += " WHERE b.user_id=?"
        args = append(args, userID)
    }
    q += " ORDER BY b.created_at DESC, b.id DESC"

    rows, err := r.DB.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.BookingDetail
    for rows.Next() {
        d, err := scanBookingDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    return out, rows.Err()
}

// SetStatusesTx updates both lifecycle columns inside tx.
func (r *BookingRepo) SetStatusesTx(ctx context.Context, tx *sql.Tx, id uint64, status, paymentStatus string) error {
    _, err := tx.ExecContext(ctx,
        "UPDATE bookings SET status=?, payment_status=? WHERE id=?",
        status, paymentStatus, id)
    return err
}

// SetPaymentProcessing marks the booking's payment as in flight.
func (r *BookingRepo) SetPaymentProcessing(ctx context.Context, id uint64) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE bookings SET payment_status=? WHERE id=?",
        model.PaymentProcessing, id)
    return err
}

// ExpiredHoldCandidates lists ids of bookings whose hold deadline has
// passed while still pending on both lifecycles.  A plain read: each
// candidate is re-checked under its room lock before being expired.
func (r *BookingRepo) ExpiredHoldCandidates(ctx context.Context, now time.Time) ([]uint64, error) {
    rows, err := r.DB.QueryContext(ctx, `
		SELECT id FROM bookings
		WHERE status='pending' AND payment_status='pending'
		  AND hold_expires_at IS NOT NULL AND hold_expires_at < ?
		ORDER BY hold_expires_at, id`,
        now)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}
