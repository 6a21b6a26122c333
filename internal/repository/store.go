package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
)

// Store binds the per-table repositories into the storage contracts the
// booking and payment services program against.  It owns the
// transaction boundaries: every mutation that changes whether a booking
// blocks its interval runs in a transaction that first takes the
// booking's room row lock, the same lock CreateReservation holds, so
// creation, confirmation, cancellation and hold expiry all serialize
// per room.
type Store struct {
    DB       *sql.DB
    Rooms    *RoomRepo
    Bookings *BookingRepo
    Payments *PaymentRepo
}

// NewStore returns a Store over db with fresh repositories.
func NewStore(db *sql.DB) *Store {
    return &Store{
        DB:       db,
        Rooms:    NewRoomRepo(db),
        Bookings: NewBookingRepo(db),
        Payments: NewPaymentRepo(db),
    }
}

// Begin opens a transaction for the reservation workflow.
func (s *Store) Begin(ctx context.Context) (booking.Tx, error) {
    return s.DB.BeginTx(ctx, nil)
}

func sqlTx(tx booking.Tx) (*sql.Tx, error) {
    t, ok := tx.(*sql.Tx)
    if !ok {
        return nil, fmt.Errorf("repository: unexpected transaction type %T", tx)
    }
    return t, nil
}

// RoomForUpdate locks the room row exclusively for the rest of tx.
func (s *Store) RoomForUpdate(ctx context.Context, tx booking.Tx, roomID uint64) (*model.Room, error) {
    t, err := sqlTx(tx)
    if err != nil {
        return nil, err
    }
    room, err := s.Rooms.GetForUpdateTx(ctx, t, roomID)
    if err != nil {
        return nil, err
    }
    if room == nil {
        return nil, booking.NewError(booking.KindResourceUnavailable, "room not found or not available")
    }
    return room, nil
}

// BlockingBookings reads the room's blocking bookings inside tx.
func (s *Store) BlockingBookings(ctx context.Context, tx booking.Tx, roomID uint64, date string) ([]model.Booking, error) {
    t, err := sqlTx(tx)
    if err != nil {
        return nil, err
    }
    return s.Bookings.BlockingTx(ctx, t, roomID, date)
}

// InsertBooking persists the booking inside tx.
func (s *Store) InsertBooking(ctx context.Context, tx booking.Tx, b *model.Booking) error {
    t, err := sqlTx(tx)
    if err != nil {
        return err
    }
    return s.Bookings.CreateTx(ctx, t, b)
}

// BookingDetail fetches one booking with display fields.
func (s *Store) BookingDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
    return s.Bookings.GetDetail(ctx, id)
}

// BookingDetails lists every booking with display fields.
func (s *Store) BookingDetails(ctx context.Context) ([]model.BookingDetail, error) {
    return s.Bookings.ListDetails(ctx, 0)
}

// BookingByID fetches one booking, or (nil, nil) when it is missing.
func (s *Store) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
    return s.Bookings.GetByID(ctx, id)
}

// UpsertPayment records a payment attempt for its booking.
func (s *Store) UpsertPayment(ctx context.Context, p *model.Payment) error {
    return s.Payments.Upsert(ctx, p)
}

// SetBookingProcessing marks the booking's payment as in flight.
func (s *Store) SetBookingProcessing(ctx context.Context, bookingID uint64) error {
    return s.Bookings.SetPaymentProcessing(ctx, bookingID)
}

// PaymentByIntentID fetches the payment for an intent id, (nil, nil)
// when unknown.
func (s *Store) PaymentByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
    return s.Payments.GetByIntentID(ctx, intentID)
}

// withRoomLock runs fn in a transaction holding the room row lock of
// the given booking.  fn receives the booking re-read inside the
// transaction; a missing booking aborts with no error.
func (s *Store) withRoomLock(ctx context.Context, bookingID uint64, fn func(tx *sql.Tx, b *model.Booking) error) error {
    tx, err := s.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    b, err := s.Bookings.GetByIDTx(ctx, tx, bookingID)
    if err != nil {
        return err
    }
    if b == nil {
        return nil
    }
    if _, err := s.Rooms.GetForUpdateTx(ctx, tx, b.RoomID); err != nil {
        return err
    }
    // Re-read after the lock: the pre-lock row may be stale.
    b, err = s.Bookings.GetByIDTx(ctx, tx, bookingID)
    if err != nil {
        return err
    }
    if b == nil {
        return nil
    }
    if err := fn(tx, b); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ConfirmBooking settles a successful payment: booking confirmed with
// payment succeeded, hold cleared, payment row marked succeeded with
// its method recorded.  Atomic under the room lock.
func (s *Store) ConfirmBooking(ctx context.Context, paymentID, bookingID uint64, method string) error {
    return s.withRoomLock(ctx, bookingID, func(tx *sql.Tx, b *model.Booking) error {
        if _, err := tx.ExecContext(ctx,
            "UPDATE bookings SET status=?, payment_status=?, hold_expires_at=NULL WHERE id=?",
            model.BookingConfirmed, model.PaymentSucceeded, b.ID); err != nil {
            return err
        }
        return s.Payments.SetStatusTx(ctx, tx, paymentID, "succeeded", method)
    })
}

// FailPayment records a failed payment attempt.  The booking keeps its
// pending status and hold so the payer can retry within the window.
func (s *Store) FailPayment(ctx context.Context, paymentID, bookingID uint64) error {
    return s.withRoomLock(ctx, bookingID, func(tx *sql.Tx, b *model.Booking) error {
        if err := s.Bookings.SetStatusesTx(ctx, tx, b.ID, b.Status, model.PaymentFailed); err != nil {
            return err
        }
        return s.Payments.SetStatusTx(ctx, tx, paymentID, "failed", "")
    })
}

// ResolveCancel applies a canceled payment intent.  decide runs with
// the booking re-read under the room lock and returns the terminal
// booking status to apply; payment_status becomes failed and the
// payment row is marked canceled in the same transaction.
func (s *Store) ResolveCancel(ctx context.Context, paymentID, bookingID uint64, decide func(b *model.Booking) string) error {
    return s.withRoomLock(ctx, bookingID, func(tx *sql.Tx, b *model.Booking) error {
        status := decide(b)
        if _, err := tx.ExecContext(ctx,
            "UPDATE bookings SET status=?, payment_status=?, hold_expires_at=NULL WHERE id=?",
            status, model.PaymentFailed, b.ID); err != nil {
            return err
        }
        return s.Payments.SetStatusTx(ctx, tx, paymentID, "canceled", "")
    })
}

// ExpiredHoldCandidates lists bookings whose hold deadline has passed.
func (s *Store) ExpiredHoldCandidates(ctx context.Context, now time.Time) ([]uint64, error) {
    return s.Bookings.ExpiredHoldCandidates(ctx, now)
}

// ExpireHold transitions one abandoned hold to expired, re-checking
// under the room lock that it is still pending on both lifecycles with
// an elapsed deadline.  Returns whether the transition happened.
func (s *Store) ExpireHold(ctx context.Context, bookingID uint64, now time.Time) (bool, error) {
    expired := false
    err := s.withRoomLock(ctx, bookingID, func(tx *sql.Tx, b *model.Booking) error {
        if !b.HoldExpired(now) {
            return nil
        }
        if err := s.Bookings.SetStatusesTx(ctx, tx, b.ID, model.BookingExpired, b.PaymentStatus); err != nil {
            return err
        }
        expired = true
        return nil
    })
    return expired, err
}
