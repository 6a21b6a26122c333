package booking

import (
    "context"
    "time"

    "github.com/iliyamo/room-reservation/internal/model"
)

// HoldWindow is how long a pending booking is held while payment is
// collected.  When it elapses without a successful payment the booking
// expires and its interval is released.
const HoldWindow = 30 * time.Minute

// Tx is the subset of a storage transaction the engine drives.  A
// *sql.Tx satisfies it directly.
type Tx interface {
    Commit() error
    Rollback() error
}

// Store is the storage contract the reservation workflow requires: a
// transaction with at least repeatable-read semantics, an exclusive
// per-room row lock held for the remainder of the transaction, and a
// consistent snapshot of the room's blocking bookings read after the
// lock is acquired.
//
// RoomForUpdate must fail with KindResourceUnavailable when the room
// does not exist and with KindLockTimeout when the lock cannot be
// acquired within the transaction's wait budget.
type Store interface {
    Begin(ctx context.Context) (Tx, error)
    RoomForUpdate(ctx context.Context, tx Tx, roomID uint64) (*model.Room, error)
    BlockingBookings(ctx context.Context, tx Tx, roomID uint64, date string) ([]model.Booking, error)
    InsertBooking(ctx context.Context, tx Tx, b *model.Booking) error
    BookingDetail(ctx context.Context, id uint64) (*model.BookingDetail, error)
    BookingDetails(ctx context.Context) ([]model.BookingDetail, error)
}

// CreateParams are the caller-supplied inputs of CreateReservation.
// Slot count and amount are never part of it; the engine derives both.
type CreateParams struct {
    UserID          uint64
    RoomID          uint64
    Date            string // "2006-01-02"
    StartTime       string // "HH:MM" or "HH:MM:SS"
    EndTime         string
    GuestCount      int
    SpecialRequests *string
}

// Service orchestrates reservation creation and reads.  All methods are
// safe for concurrent use; mutual exclusion between concurrent create
// attempts on the same room comes from the store's row lock, not from
// process memory.
type Service struct {
    store Store
    now   func() time.Time
}

// NewService returns a Service bound to the given store.
func NewService(store Store) *Service {
    if store == nil {
        panic("nil store passed to booking.NewService")
    }
    return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// CreateReservation validates the request, locks the target room,
// checks the candidate interval against the room's blocking bookings
// and atomically persists a pending booking with a hold deadline.
// Checks run in a fixed order and each failure is terminal: nothing is
// written unless every check passes, and the room lock is released on
// every exit path by the deferred rollback or the final commit.
func (s *Service) CreateReservation(ctx context.Context, p CreateParams) (*model.BookingDetail, error) {
    now := s.now()

    day, err := time.Parse("2006-01-02", p.Date)
    if err != nil {
        return nil, WrapError(KindInvalidDate, "invalid booking date", err)
    }
    today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
    if day.Before(today) {
        return nil, NewError(KindInvalidDate, "booking date cannot be in the past")
    }

    startMin, err := ParseTimeOfDay(p.StartTime)
    if err != nil {
        return nil, WrapError(KindInvalidRange, "invalid start time", err)
    }
    endMin, err := ParseTimeOfDay(p.EndTime)
    if err != nil {
        return nil, WrapError(KindInvalidRange, "invalid end time", err)
    }
    if endMin <= startMin {
        return nil, NewError(KindInvalidRange, "end time must be after start time")
    }

    tx, err := s.store.Begin(ctx)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Serializes all concurrent attempts against this room; distinct
    // rooms do not contend.
    room, err := s.store.RoomForUpdate(ctx, tx, p.RoomID)
    if err != nil {
        return nil, err
    }
    if !room.IsAvailable {
        return nil, NewError(KindResourceUnavailable, "room not found or not available")
    }

    openMin, err := ParseTimeOfDay(room.OpeningTime)
    if err != nil {
        return nil, err
    }
    closeMin, err := ParseTimeOfDay(room.ClosingTime)
    if err != nil {
        return nil, err
    }
    if startMin < openMin || endMin > closeMin {
        return nil, NewError(KindOutsideOperatingHours, "booking time must be within room operating hours")
    }

    price, err := CalculateSlots(p.StartTime, p.EndTime, room.SlotDurationMinutes, room.PricePerSlot)
    if err != nil {
        return nil, err
    }

    // Snapshot read after the lock is held.
    blocking, err := s.store.BlockingBookings(ctx, tx, p.RoomID, p.Date)
    if err != nil {
        return nil, err
    }
    conflict, err := FindConflict(p.StartTime, p.EndTime, blocking, 0)
    if err != nil {
        return nil, err
    }
    if conflict != nil {
        e := NewError(KindSlotConflict, "time slot conflicts with existing booking")
        e.Conflict = &ConflictWindow{StartTime: conflict.StartTime, EndTime: conflict.EndTime}
        return nil, e
    }

    if p.GuestCount < 1 || p.GuestCount > room.Capacity {
        return nil, NewError(KindCapacityExceeded, "guest count exceeds room capacity")
    }

    holdExpires := now.Add(HoldWindow)
    b := &model.Booking{
        UserID:          p.UserID,
        RoomID:          p.RoomID,
        BookingDate:     p.Date,
        StartTime:       p.StartTime,
        EndTime:         p.EndTime,
        GuestCount:      p.GuestCount,
        TotalAmount:     price.Amount,
        NumberOfSlots:   price.Slots,
        Status:          model.BookingPending,
        PaymentStatus:   model.PaymentPending,
        SpecialRequests: p.SpecialRequests,
        HoldExpiresAt:   &holdExpires,
    }
    if err := s.store.InsertBooking(ctx, tx, b); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    return s.store.BookingDetail(ctx, b.ID)
}

// Booking returns one booking with its user/room display fields.
func (s *Service) Booking(ctx context.Context, id uint64) (*model.BookingDetail, error) {
    return s.store.BookingDetail(ctx, id)
}

// AllBookings returns every booking with display fields, newest first.
// Access control for this privileged read is enforced by the caller.
func (s *Service) AllBookings(ctx context.Context) ([]model.BookingDetail, error) {
    return s.store.BookingDetails(ctx)
}
