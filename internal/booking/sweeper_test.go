package booking

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-reservation/internal/model"
)

// memSweepStore holds bookings keyed by id and applies the same
// re-check the SQL store performs under the room lock.
type memSweepStore struct {
    mu       sync.Mutex
    bookings map[uint64]*model.Booking
    scanErr  error
}

func (s *memSweepStore) ExpiredHoldCandidates(ctx context.Context, now time.Time) ([]uint64, error) {
    if s.scanErr != nil {
        return nil, s.scanErr
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    var ids []uint64
    for id, b := range s.bookings {
        if b.HoldExpired(now) {
            ids = append(ids, id)
        }
    }
    return ids, nil
}

func (s *memSweepStore) ExpireHold(ctx context.Context, bookingID uint64, now time.Time) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok || !b.HoldExpired(now) {
        return false, nil
    }
    b.Status = model.BookingExpired
    return true, nil
}

func holdBooking(id uint64, deadline time.Time, status, payStatus string) *model.Booking {
    d := deadline
    return &model.Booking{ID: id, Status: status, PaymentStatus: payStatus, HoldExpiresAt: &d}
}

func TestSweepOnceExpiresElapsedHolds(t *testing.T) {
    now := fixedNow()
    store := &memSweepStore{bookings: map[uint64]*model.Booking{
        1: holdBooking(1, now.Add(-time.Minute), model.BookingPending, model.PaymentPending),
        2: holdBooking(2, now.Add(time.Minute), model.BookingPending, model.PaymentPending),
        3: holdBooking(3, now.Add(-time.Minute), model.BookingConfirmed, model.PaymentSucceeded),
    }}
    sw := NewSweeper(store, time.Minute)
    sw.now = fixedNow

    n, err := sw.SweepOnce(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, n)

    assert.Equal(t, model.BookingExpired, store.bookings[1].Status)
    assert.Equal(t, model.BookingPending, store.bookings[2].Status)
    assert.Equal(t, model.BookingConfirmed, store.bookings[3].Status)
}

func TestSweepOnceSkipsSettledCandidate(t *testing.T) {
    now := fixedNow()
    b := holdBooking(1, now.Add(-time.Minute), model.BookingPending, model.PaymentPending)
    store := &memSweepStore{bookings: map[uint64]*model.Booking{1: b}}
    sw := NewSweeper(store, time.Minute)
    sw.now = fixedNow

    // Settled between the candidate scan and the per-booking check.
    b.Status = model.BookingConfirmed
    b.PaymentStatus = model.PaymentSucceeded

    n, err := sw.SweepOnce(context.Background())
    require.NoError(t, err)
    assert.Zero(t, n)
    assert.Equal(t, model.BookingConfirmed, b.Status)
}

func TestSweepOnceScanError(t *testing.T) {
    store := &memSweepStore{scanErr: errors.New("db down")}
    sw := NewSweeper(store, time.Minute)
    _, err := sw.SweepOnce(context.Background())
    assert.Error(t, err)
}

func TestNewSweeperDefaultsInterval(t *testing.T) {
    sw := NewSweeper(&memSweepStore{}, 0)
    assert.Equal(t, time.Minute, sw.interval)
}
