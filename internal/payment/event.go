package payment

// EventKind identifies a recognized gateway webhook event.  The names
// match the gateway's own event types so the transport layer can map
// them without a translation table.
type EventKind string

const (
    EventIntentSucceeded EventKind = "payment_intent.succeeded"
    EventIntentFailed    EventKind = "payment_intent.payment_failed"
    EventIntentCanceled  EventKind = "payment_intent.canceled"
)

// Event is a gateway webhook event after the transport layer has
// verified its signature and decoded it.  The engine trusts its
// integrity.  PaymentMethod is set when the gateway reported one.
type Event struct {
    Kind          EventKind
    IntentID      string
    PaymentMethod string
}
