package payment

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/queue"
)

// memPayStore is an in-memory payment.Store.  The mutations mirror the
// SQL store's transactional semantics without a database.
type memPayStore struct {
    bookings map[uint64]*model.Booking
    payments map[string]*model.Payment // keyed by intent id
    nextID   uint64
}

func newMemPayStore(bs ...*model.Booking) *memPayStore {
    s := &memPayStore{
        bookings: map[uint64]*model.Booking{},
        payments: map[string]*model.Payment{},
        nextID:   1,
    }
    for _, b := range bs {
        s.bookings[b.ID] = b
    }
    return s
}

func (s *memPayStore) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
    b, ok := s.bookings[id]
    if !ok {
        return nil, nil
    }
    cp := *b
    return &cp, nil
}

func (s *memPayStore) BookingDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
    b, ok := s.bookings[id]
    if !ok {
        return nil, nil
    }
    return &model.BookingDetail{Booking: *b, UserEmail: "u@example.com", RoomName: "Boardroom"}, nil
}

func (s *memPayStore) UpsertPayment(ctx context.Context, p *model.Payment) error {
    for _, old := range s.payments {
        if old.BookingID == p.BookingID {
            p.ID = old.ID
            delete(s.payments, old.PaymentIntentID)
            break
        }
    }
    if p.ID == 0 {
        p.ID = s.nextID
        s.nextID++
    }
    cp := *p
    s.payments[p.PaymentIntentID] = &cp
    return nil
}

func (s *memPayStore) SetBookingProcessing(ctx context.Context, bookingID uint64) error {
    s.bookings[bookingID].PaymentStatus = model.PaymentProcessing
    return nil
}

func (s *memPayStore) PaymentByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
    p, ok := s.payments[intentID]
    if !ok {
        return nil, nil
    }
    cp := *p
    return &cp, nil
}

func (s *memPayStore) paymentByID(id uint64) *model.Payment {
    for _, p := range s.payments {
        if p.ID == id {
            return p
        }
    }
    return nil
}

func (s *memPayStore) ConfirmBooking(ctx context.Context, paymentID, bookingID uint64, method string) error {
    b := s.bookings[bookingID]
    b.Status = model.BookingConfirmed
    b.PaymentStatus = model.PaymentSucceeded
    b.HoldExpiresAt = nil
    p := s.paymentByID(paymentID)
    p.Status = "succeeded"
    if method != "" {
        p.PaymentMethod = &method
    }
    return nil
}

func (s *memPayStore) FailPayment(ctx context.Context, paymentID, bookingID uint64) error {
    s.bookings[bookingID].PaymentStatus = model.PaymentFailed
    s.paymentByID(paymentID).Status = "failed"
    return nil
}

func (s *memPayStore) ResolveCancel(ctx context.Context, paymentID, bookingID uint64, decide func(b *model.Booking) string) error {
    b := s.bookings[bookingID]
    b.Status = decide(b)
    b.PaymentStatus = model.PaymentFailed
    b.HoldExpiresAt = nil
    s.paymentByID(paymentID).Status = "canceled"
    return nil
}

// stubGateway returns a canned intent or error and records the last
// request.
type stubGateway struct {
    intent   Intent
    err      error
    lastAmt  int64
    lastCur  string
    lastMeta map[string]string
}

func (g *stubGateway) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (Intent, error) {
    g.lastAmt = amountMinorUnits
    g.lastCur = currency
    g.lastMeta = metadata
    if g.err != nil {
        return Intent{}, g.err
    }
    return g.intent, nil
}

type stubNotifier struct {
    events []queue.BookingConfirmedEvent
    err    error
}

func (n *stubNotifier) BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
    n.events = append(n.events, ev)
    return n.err
}

func payNow() time.Time {
    return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func pendingBooking(id uint64, deadline time.Time) *model.Booking {
    d := deadline
    return &model.Booking{
        ID:            id,
        UserID:        42,
        RoomID:        1,
        TotalAmount:   decimal.RequireFromString("20.00"),
        Status:        model.BookingPending,
        PaymentStatus: model.PaymentPending,
        HoldExpiresAt: &d,
    }
}

func newTestPayment(store Store, gw Gateway, n Notifier) *Service {
    svc := NewService(store, gw, n)
    svc.now = payNow
    return svc
}

func TestRequestPaymentHappyPath(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Status: "requires_payment_method"}}
    svc := newTestPayment(store, gw, nil)

    res, err := svc.RequestPayment(context.Background(), 1, decimal.RequireFromString("20.00"), "")
    require.NoError(t, err)

    assert.Equal(t, int64(2000), gw.lastAmt)
    assert.Equal(t, "usd", gw.lastCur)
    assert.Equal(t, "1", gw.lastMeta["booking_id"])

    assert.Equal(t, "pi_1", res.PaymentIntentID)
    assert.Equal(t, "pi_1_secret", res.ClientSecret)
    assert.Equal(t, model.PaymentProcessing, store.bookings[1].PaymentStatus)

    p := store.payments["pi_1"]
    require.NotNil(t, p)
    assert.Equal(t, uint64(1), p.BookingID)
    assert.Equal(t, "pi_1_secret", p.Metadata["client_secret"])
}

func TestRequestPaymentCurrencyNormalized(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    svc := newTestPayment(store, gw, nil)

    _, err := svc.RequestPayment(context.Background(), 1, decimal.RequireFromString("5.00"), " EUR ")
    require.NoError(t, err)
    assert.Equal(t, "eur", gw.lastCur)
    assert.Equal(t, int64(500), gw.lastAmt)
}

func TestRequestPaymentUnknownBooking(t *testing.T) {
    svc := newTestPayment(newMemPayStore(), &stubGateway{}, nil)
    _, err := svc.RequestPayment(context.Background(), 9, decimal.New(1, 0), "usd")
    require.Error(t, err)
    assert.Equal(t, booking.KindNotFound, booking.KindOf(err))
}

func TestRequestPaymentAlreadyPaid(t *testing.T) {
    b := pendingBooking(1, payNow().Add(20*time.Minute))
    b.Status = model.BookingConfirmed
    b.PaymentStatus = model.PaymentSucceeded
    svc := newTestPayment(newMemPayStore(b), &stubGateway{}, nil)

    _, err := svc.RequestPayment(context.Background(), 1, decimal.New(1, 0), "usd")
    require.Error(t, err)
    assert.Equal(t, booking.KindAlreadyPaid, booking.KindOf(err))
}

func TestRequestPaymentGatewayErrorLeavesBookingUntouched(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{err: errors.New("gateway down")}
    svc := newTestPayment(store, gw, nil)

    _, err := svc.RequestPayment(context.Background(), 1, decimal.RequireFromString("20.00"), "usd")
    require.Error(t, err)
    assert.Equal(t, booking.KindGateway, booking.KindOf(err))

    assert.Equal(t, model.PaymentPending, store.bookings[1].PaymentStatus)
    assert.Empty(t, store.payments)
}

// seedIntent drives a full RequestPayment so the store holds a payment
// row the webhook events can resolve against.
func seedIntent(t *testing.T, svc *Service, bookingID uint64, amount string) {
    t.Helper()
    _, err := svc.RequestPayment(context.Background(), bookingID, decimal.RequireFromString(amount), "usd")
    require.NoError(t, err)
}

func TestHandleEventSucceededConfirmsAndPublishes(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    notifier := &stubNotifier{}
    svc := newTestPayment(store, gw, notifier)
    seedIntent(t, svc, 1, "20.00")

    err := svc.HandleGatewayEvent(context.Background(), Event{
        Kind: EventIntentSucceeded, IntentID: "pi_1", PaymentMethod: "pm_card",
    })
    require.NoError(t, err)

    b := store.bookings[1]
    assert.Equal(t, model.BookingConfirmed, b.Status)
    assert.Equal(t, model.PaymentSucceeded, b.PaymentStatus)
    assert.Nil(t, b.HoldExpiresAt)

    p := store.payments["pi_1"]
    assert.Equal(t, "succeeded", p.Status)
    require.NotNil(t, p.PaymentMethod)
    assert.Equal(t, "pm_card", *p.PaymentMethod)

    require.Len(t, notifier.events, 1)
    assert.Equal(t, uint64(1), notifier.events[0].BookingID)
    assert.Equal(t, "20.00", notifier.events[0].TotalAmount)
}

func TestHandleEventSucceededDuplicateIsNoop(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    notifier := &stubNotifier{}
    svc := newTestPayment(store, gw, notifier)
    seedIntent(t, svc, 1, "20.00")

    ev := Event{Kind: EventIntentSucceeded, IntentID: "pi_1", PaymentMethod: "pm_card"}
    require.NoError(t, svc.HandleGatewayEvent(context.Background(), ev))
    require.NoError(t, svc.HandleGatewayEvent(context.Background(), ev))

    assert.Len(t, notifier.events, 1)
}

func TestHandleEventFailedKeepsHold(t *testing.T) {
    deadline := payNow().Add(20 * time.Minute)
    store := newMemPayStore(pendingBooking(1, deadline))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    svc := newTestPayment(store, gw, nil)
    seedIntent(t, svc, 1, "20.00")

    err := svc.HandleGatewayEvent(context.Background(), Event{Kind: EventIntentFailed, IntentID: "pi_1"})
    require.NoError(t, err)

    b := store.bookings[1]
    assert.Equal(t, model.BookingPending, b.Status)
    assert.Equal(t, model.PaymentFailed, b.PaymentStatus)
    require.NotNil(t, b.HoldExpiresAt)
    assert.Equal(t, "failed", store.payments["pi_1"].Status)
}

func TestHandleEventFailedAfterSucceededIgnored(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    svc := newTestPayment(store, gw, nil)
    seedIntent(t, svc, 1, "20.00")

    require.NoError(t, svc.HandleGatewayEvent(context.Background(),
        Event{Kind: EventIntentSucceeded, IntentID: "pi_1", PaymentMethod: "pm_card"}))
    require.NoError(t, svc.HandleGatewayEvent(context.Background(),
        Event{Kind: EventIntentFailed, IntentID: "pi_1"}))

    b := store.bookings[1]
    assert.Equal(t, model.BookingConfirmed, b.Status)
    assert.Equal(t, model.PaymentSucceeded, b.PaymentStatus)
    assert.Equal(t, "succeeded", store.payments["pi_1"].Status)
}

func TestHandleEventCanceledBeforeDeadline(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    svc := newTestPayment(store, gw, nil)
    seedIntent(t, svc, 1, "20.00")

    err := svc.HandleGatewayEvent(context.Background(), Event{Kind: EventIntentCanceled, IntentID: "pi_1"})
    require.NoError(t, err)

    b := store.bookings[1]
    assert.Equal(t, model.BookingCancelled, b.Status)
    assert.Equal(t, model.PaymentFailed, b.PaymentStatus)
    assert.Equal(t, "canceled", store.payments["pi_1"].Status)
}

func TestHandleEventCanceledAfterDeadline(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(-time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    svc := newTestPayment(store, gw, nil)
    seedIntent(t, svc, 1, "20.00")

    err := svc.HandleGatewayEvent(context.Background(), Event{Kind: EventIntentCanceled, IntentID: "pi_1"})
    require.NoError(t, err)

    b := store.bookings[1]
    assert.Equal(t, model.BookingExpired, b.Status)
    assert.Equal(t, model.PaymentFailed, b.PaymentStatus)
}

func TestHandleEventCanceledAfterSucceededIgnored(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    svc := newTestPayment(store, gw, nil)
    seedIntent(t, svc, 1, "20.00")

    require.NoError(t, svc.HandleGatewayEvent(context.Background(),
        Event{Kind: EventIntentSucceeded, IntentID: "pi_1", PaymentMethod: "pm_card"}))
    require.NoError(t, svc.HandleGatewayEvent(context.Background(),
        Event{Kind: EventIntentCanceled, IntentID: "pi_1"}))

    assert.Equal(t, model.BookingConfirmed, store.bookings[1].Status)
}

func TestHandleEventUnknownIntentIsNoop(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    svc := newTestPayment(store, &stubGateway{}, nil)

    err := svc.HandleGatewayEvent(context.Background(), Event{Kind: EventIntentSucceeded, IntentID: "pi_unknown"})
    require.NoError(t, err)
    assert.Equal(t, model.BookingPending, store.bookings[1].Status)
}

func TestHandleEventUnknownKindIsNoop(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    svc := newTestPayment(store, gw, nil)
    seedIntent(t, svc, 1, "20.00")

    err := svc.HandleGatewayEvent(context.Background(), Event{Kind: "payment_intent.created", IntentID: "pi_1"})
    require.NoError(t, err)
    assert.Equal(t, model.PaymentProcessing, store.bookings[1].PaymentStatus)
}

func TestPublishFailureDoesNotFailConfirmation(t *testing.T) {
    store := newMemPayStore(pendingBooking(1, payNow().Add(20*time.Minute)))
    gw := &stubGateway{intent: Intent{ID: "pi_1", ClientSecret: "sec", Status: "requires_payment_method"}}
    notifier := &stubNotifier{err: errors.New("broker down")}
    svc := newTestPayment(store, gw, notifier)
    seedIntent(t, svc, 1, "20.00")

    err := svc.HandleGatewayEvent(context.Background(),
        Event{Kind: EventIntentSucceeded, IntentID: "pi_1", PaymentMethod: "pm_card"})
    require.NoError(t, err)
    assert.Equal(t, model.BookingConfirmed, store.bookings[1].Status)
}
