package booking

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-reservation/internal/model"
)

// memStore is an in-memory Store.  RoomForUpdate takes a per-room mutex
// that is released on Commit/Rollback, mirroring the exclusive row lock
// the real store holds for the rest of the transaction.
type memStore struct {
    mu       sync.Mutex
    rooms    map[uint64]*model.Room
    roomLock map[uint64]*sync.Mutex
    bookings []model.Booking
    nextID   uint64
}

func newMemStore(rooms ...*model.Room) *memStore {
    s := &memStore{
        rooms:    map[uint64]*model.Room{},
        roomLock: map[uint64]*sync.Mutex{},
        nextID:   1,
    }
    for _, r := range rooms {
        s.rooms[r.ID] = r
        s.roomLock[r.ID] = &sync.Mutex{}
    }
    return s
}

type memTx struct {
    unlocks []func()
    done    bool
}

func (t *memTx) finish() {
    if t.done {
        return
    }
    t.done = true
    for _, u := range t.unlocks {
        u()
    }
}
func (t *memTx) Commit() error   { t.finish(); return nil }
func (t *memTx) Rollback() error { t.finish(); return nil }

func (s *memStore) Begin(ctx context.Context) (Tx, error) { return &memTx{}, nil }

func (s *memStore) RoomForUpdate(ctx context.Context, tx Tx, roomID uint64) (*model.Room, error) {
    s.mu.Lock()
    room, ok := s.rooms[roomID]
    lock := s.roomLock[roomID]
    s.mu.Unlock()
    if !ok {
        return nil, NewError(KindResourceUnavailable, "room not found or not available")
    }
    lock.Lock()
    tx.(*memTx).unlocks = append(tx.(*memTx).unlocks, lock.Unlock)
    return room, nil
}

func (s *memStore) BlockingBookings(ctx context.Context, tx Tx, roomID uint64, date string) ([]model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.Booking
    for _, b := range s.bookings {
        if b.RoomID == roomID && b.BookingDate == date && b.Blocking() {
            out = append(out, b)
        }
    }
    return out, nil
}

func (s *memStore) InsertBooking(ctx context.Context, tx Tx, b *model.Booking) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b.ID = s.nextID
    s.nextID++
    s.bookings = append(s.bookings, *b)
    return nil
}

func (s *memStore) BookingDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, b := range s.bookings {
        if b.ID == id {
            return &model.BookingDetail{Booking: b, UserName: "u@example.com", UserEmail: "u@example.com", RoomName: "Room"}, nil
        }
    }
    return nil, nil
}

func (s *memStore) BookingDetails(ctx context.Context) ([]model.BookingDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.BookingDetail, 0, len(s.bookings))
    for _, b := range s.bookings {
        out = append(out, model.BookingDetail{Booking: b})
    }
    return out, nil
}

func testRoom() *model.Room {
    return &model.Room{
        ID:                  1,
        Name:                "Boardroom",
        PricePerSlot:        decimal.RequireFromString("10.00"),
        Capacity:            8,
        IsAvailable:         true,
        SlotDurationMinutes: 30,
        OpeningTime:         "08:00:00",
        ClosingTime:         "20:00:00",
    }
}

func fixedNow() time.Time {
    return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func newTestService(store Store) *Service {
    svc := NewService(store)
    svc.now = fixedNow
    return svc
}

func validParams() CreateParams {
    return CreateParams{
        UserID:     42,
        RoomID:     1,
        Date:       "2026-03-11",
        StartTime:  "09:00",
        EndTime:    "10:00",
        GuestCount: 4,
    }
}

func TestCreateReservationHappyPath(t *testing.T) {
    store := newMemStore(testRoom())
    svc := newTestService(store)

    det, err := svc.CreateReservation(context.Background(), validParams())
    require.NoError(t, err)
    require.NotNil(t, det)

    assert.Equal(t, uint64(42), det.UserID)
    assert.Equal(t, 2, det.NumberOfSlots)
    assert.True(t, det.TotalAmount.Equal(decimal.RequireFromString("20.00")),
        "amount = %s", det.TotalAmount)
    assert.Equal(t, model.BookingPending, det.Status)
    assert.Equal(t, model.PaymentPending, det.PaymentStatus)
    require.NotNil(t, det.HoldExpiresAt)
    assert.Equal(t, fixedNow().Add(HoldWindow), *det.HoldExpiresAt)
}

func TestCreateReservationValidationOrder(t *testing.T) {
    store := newMemStore(testRoom())
    svc := newTestService(store)
    ctx := context.Background()

    cases := []struct {
        name   string
        mutate func(*CreateParams)
        kind   Kind
    }{
        {"bad date", func(p *CreateParams) { p.Date = "2026-13-40" }, KindInvalidDate},
        {"past date", func(p *CreateParams) { p.Date = "2026-03-09" }, KindInvalidDate},
        {"bad start", func(p *CreateParams) { p.StartTime = "nope" }, KindInvalidRange},
        {"end before start", func(p *CreateParams) { p.StartTime = "10:00"; p.EndTime = "09:00" }, KindInvalidRange},
        {"end equals start", func(p *CreateParams) { p.EndTime = "09:00" }, KindInvalidRange},
        {"before opening", func(p *CreateParams) { p.StartTime = "07:00"; p.EndTime = "09:00" }, KindOutsideOperatingHours},
        {"after closing", func(p *CreateParams) { p.StartTime = "19:30"; p.EndTime = "20:30" }, KindOutsideOperatingHours},
        {"sub-slot duration", func(p *CreateParams) { p.EndTime = "09:20" }, KindDurationTooShort},
        {"zero guests", func(p *CreateParams) { p.GuestCount = 0 }, KindCapacityExceeded},
        {"too many guests", func(p *CreateParams) { p.GuestCount = 9 }, KindCapacityExceeded},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            p := validParams()
            tc.mutate(&p)
            _, err := svc.CreateReservation(ctx, p)
            require.Error(t, err)
            assert.Equal(t, tc.kind, KindOf(err))
        })
    }

    // Nothing may have been written by any failed attempt.
    assert.Empty(t, store.bookings)
}

func TestCreateReservationUnknownRoom(t *testing.T) {
    svc := newTestService(newMemStore(testRoom()))
    p := validParams()
    p.RoomID = 99
    _, err := svc.CreateReservation(context.Background(), p)
    require.Error(t, err)
    assert.Equal(t, KindResourceUnavailable, KindOf(err))
}

func TestCreateReservationUnavailableRoom(t *testing.T) {
    room := testRoom()
    room.IsAvailable = false
    svc := newTestService(newMemStore(room))
    _, err := svc.CreateReservation(context.Background(), validParams())
    require.Error(t, err)
    assert.Equal(t, KindResourceUnavailable, KindOf(err))
}

func TestCreateReservationConflict(t *testing.T) {
    store := newMemStore(testRoom())
    svc := newTestService(store)
    ctx := context.Background()

    _, err := svc.CreateReservation(ctx, validParams())
    require.NoError(t, err)

    p := validParams()
    p.StartTime = "09:30"
    p.EndTime = "10:30"
    _, err = svc.CreateReservation(ctx, p)
    require.Error(t, err)
    assert.Equal(t, KindSlotConflict, KindOf(err))

    var be *Error
    require.ErrorAs(t, err, &be)
    require.NotNil(t, be.Conflict)
    assert.Equal(t, "09:00", be.Conflict.StartTime)
    assert.Equal(t, "10:00", be.Conflict.EndTime)
}

func TestCreateReservationAbuttingAllowed(t *testing.T) {
    store := newMemStore(testRoom())
    svc := newTestService(store)
    ctx := context.Background()

    _, err := svc.CreateReservation(ctx, validParams())
    require.NoError(t, err)

    p := validParams()
    p.StartTime = "10:00"
    p.EndTime = "11:00"
    det, err := svc.CreateReservation(ctx, p)
    require.NoError(t, err)
    assert.Equal(t, 2, det.NumberOfSlots)
}

func TestCreateReservationConcurrentSameSlot(t *testing.T) {
    store := newMemStore(testRoom())
    svc := newTestService(store)
    ctx := context.Background()

    const attempts = 8
    var (
        wg        sync.WaitGroup
        mu        sync.Mutex
        successes int
        conflicts int
    )
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func(uid uint64) {
            defer wg.Done()
            p := validParams()
            p.UserID = uid
            _, err := svc.CreateReservation(ctx, p)
            mu.Lock()
            defer mu.Unlock()
            if err == nil {
                successes++
            } else if KindOf(err) == KindSlotConflict {
                conflicts++
            }
        }(uint64(i + 1))
    }
    wg.Wait()

    assert.Equal(t, 1, successes)
    assert.Equal(t, attempts-1, conflicts)
    assert.Len(t, store.bookings, 1)
}
