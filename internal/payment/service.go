package payment

import (
    "context"
    "log"
    "strconv"
    "strings"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/room-reservation/internal/booking"
    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/queue"
)

// Store is the storage contract of payment reconciliation.
//
// PaymentByIntentID returns (nil, nil) when no payment record matches;
// an unknown intent is a logged no-op, never an error to the gateway.
// ResolveCancel must re-read the booking under its room's exclusive row
// lock, call decide with the fresh row, and atomically apply the
// returned booking status together with payment_status=failed and the
// payment record's canceled status — this is what keeps the
// cancellation branch race-free against the hold sweeper.
type Store interface {
    BookingByID(ctx context.Context, id uint64) (*model.Booking, error)
    BookingDetail(ctx context.Context, id uint64) (*model.BookingDetail, error)
    UpsertPayment(ctx context.Context, p *model.Payment) error
    SetBookingProcessing(ctx context.Context, bookingID uint64) error
    ConfirmBooking(ctx context.Context, paymentID, bookingID uint64, method string) error
    FailPayment(ctx context.Context, paymentID, bookingID uint64) error
    PaymentByIntentID(ctx context.Context, intentID string) (*model.Payment, error)
    ResolveCancel(ctx context.Context, paymentID, bookingID uint64, decide func(b *model.Booking) string) error
}

// Notifier publishes domain events for downstream consumers.  Publish
// failures are logged and swallowed; reconciliation never fails because
// the broker is down.
type Notifier interface {
    BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// IntentResult is what RequestPayment returns to the caller: the
// gateway's intent id and client-side continuation token, verbatim.
type IntentResult struct {
    PaymentIntentID string          `json:"payment_intent_id"`
    ClientSecret    string          `json:"client_secret"`
    Amount          decimal.Decimal `json:"amount"`
    Currency        string          `json:"currency"`
    Status          string          `json:"status"`
    BookingID       uint64          `json:"booking_id"`
}

// Service drives the payment side of the booking/payment state
// machines: it creates payment intents and applies gateway webhook
// events.  Event application is idempotent and monotonic — replaying a
// terminal event is a no-op, and once a booking is confirmed a stale
// failed/canceled event for the same intent is ignored.
type Service struct {
    store    Store
    gateway  Gateway
    notifier Notifier
    now      func() time.Time
}

// NewService returns a Service.  notifier may be nil, in which case no
// events are published.
func NewService(store Store, gateway Gateway, notifier Notifier) *Service {
    if store == nil || gateway == nil {
        panic("nil dependency passed to payment.NewService")
    }
    return &Service{
        store:    store,
        gateway:  gateway,
        notifier: notifier,
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// BookingForUser fetches the booking a payment request targets, so the
// transport layer can enforce ownership before money moves.  Returns
// (nil, nil) when the booking does not exist.
func (s *Service) BookingForUser(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    return s.store.BookingByID(ctx, bookingID)
}

// RequestPayment asks the gateway to create a payment intent for the
// booking and records the attempt.  The payment record is upserted on
// the booking key: a retry replaces the previous attempt rather than
// accumulating history.  On gateway failure nothing is written and the
// booking stays pending/pending, so the call is safely retryable.
func (s *Service) RequestPayment(ctx context.Context, bookingID uint64, amount decimal.Decimal, currency string) (*IntentResult, error) {
    b, err := s.store.BookingByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if b == nil {
        return nil, booking.NewError(booking.KindNotFound, "booking not found")
    }
    if b.PaymentStatus == model.PaymentSucceeded {
        return nil, booking.NewError(booking.KindAlreadyPaid, "booking already paid")
    }

    currency = strings.ToLower(strings.TrimSpace(currency))
    if currency == "" {
        currency = "usd"
    }

    // Gateways charge in the smallest currency unit.
    minor := amount.Shift(2).IntPart()
    intent, err := s.gateway.CreateIntent(ctx, minor, currency, map[string]string{
        "booking_id": strconv.FormatUint(b.ID, 10),
        "user_id":    strconv.FormatUint(b.UserID, 10),
        "room_id":    strconv.FormatUint(b.RoomID, 10),
    })
    if err != nil {
        return nil, booking.WrapError(booking.KindGateway, "payment intent creation failed", err)
    }

    p := &model.Payment{
        BookingID:       b.ID,
        PaymentIntentID: intent.ID,
        Amount:          amount,
        Currency:        currency,
        Status:          intent.Status,
        Metadata:        map[string]any{"client_secret": intent.ClientSecret},
    }
    if err := s.store.UpsertPayment(ctx, p); err != nil {
        return nil, err
    }
    if err := s.store.SetBookingProcessing(ctx, b.ID); err != nil {
        return nil, err
    }

    return &IntentResult{
        PaymentIntentID: intent.ID,
        ClientSecret:    intent.ClientSecret,
        Amount:          amount,
        Currency:        currency,
        Status:          intent.Status,
        BookingID:       b.ID,
    }, nil
}

// Gateway-mirrored statuses stored on the payment record.
const (
    intentSucceeded = "succeeded"
    intentFailed    = "failed"
    intentCanceled  = "canceled"
)

// HandleGatewayEvent applies one decoded, authenticated webhook event.
// Unknown intents and unrecognized kinds are logged no-ops: failing
// them would only make the gateway retry destructively.  Duplicate
// delivery of the same terminal event changes nothing.
func (s *Service) HandleGatewayEvent(ctx context.Context, ev Event) error {
    p, err := s.store.PaymentByIntentID(ctx, ev.IntentID)
    if err != nil {
        return err
    }
    if p == nil {
        log.Printf("payment: ignoring event %s for unknown intent %s", ev.Kind, ev.IntentID)
        return nil
    }
    b, err := s.store.BookingByID(ctx, p.BookingID)
    if err != nil {
        return err
    }
    if b == nil {
        log.Printf("payment: intent %s references missing booking %d; ignoring", ev.IntentID, p.BookingID)
        return nil
    }

    switch ev.Kind {
    case EventIntentSucceeded:
        if p.Status == intentSucceeded && b.PaymentStatus == model.PaymentSucceeded {
            return nil // duplicate delivery
        }
        if err := s.store.ConfirmBooking(ctx, p.ID, b.ID, ev.PaymentMethod); err != nil {
            return err
        }
        s.publishConfirmed(ctx, b.ID)
        return nil

    case EventIntentFailed:
        if b.PaymentStatus == model.PaymentSucceeded || p.Status == intentSucceeded {
            log.Printf("payment: ignoring stale failed event for settled intent %s", ev.IntentID)
            return nil
        }
        if p.Status == intentFailed && b.PaymentStatus == model.PaymentFailed {
            return nil // duplicate delivery
        }
        return s.store.FailPayment(ctx, p.ID, b.ID)

    case EventIntentCanceled:
        if b.PaymentStatus == model.PaymentSucceeded || p.Status == intentSucceeded {
            log.Printf("payment: ignoring stale canceled event for settled intent %s", ev.IntentID)
            return nil
        }
        if p.Status == intentCanceled {
            return nil // duplicate delivery
        }
        now := s.now()
        return s.store.ResolveCancel(ctx, p.ID, b.ID, func(fresh *model.Booking) string {
            // Decided under the room lock so the hold sweeper cannot
            // race the expiry evaluation.
            if fresh.Status == model.BookingExpired {
                return model.BookingExpired
            }
            if fresh.HoldExpiresAt != nil && now.After(*fresh.HoldExpiresAt) {
                return model.BookingExpired
            }
            return model.BookingCancelled
        })

    default:
        log.Printf("payment: ignoring unrecognized event kind %q for intent %s", ev.Kind, ev.IntentID)
        return nil
    }
}

// publishConfirmed emits the booking.confirmed event, best-effort.
func (s *Service) publishConfirmed(ctx context.Context, bookingID uint64) {
    if s.notifier == nil {
        return
    }
    det, err := s.store.BookingDetail(ctx, bookingID)
    if err != nil || det == nil {
        log.Printf("payment: load booking %d for confirmation event failed: %v", bookingID, err)
        return
    }
    ev := queue.BookingConfirmedEvent{
        BookingID:   det.ID,
        UserID:      det.UserID,
        UserEmail:   det.UserEmail,
        RoomID:      det.RoomID,
        RoomName:    det.RoomName,
        BookingDate: det.BookingDate,
        StartTime:   det.StartTime,
        EndTime:     det.EndTime,
        TotalAmount: det.TotalAmount.StringFixed(2),
        ConfirmedAt: s.now().Format(time.RFC3339),
    }
    if err := s.notifier.BookingConfirmed(ctx, ev); err != nil {
        log.Printf("payment: publish booking.confirmed for %d failed: %v", bookingID, err)
    }
}
