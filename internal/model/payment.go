package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Payment is the single payment record attached to a booking (1:1).
// A new payment attempt replaces the previous one by upsert on the
// booking key; history is not modeled.  Status mirrors the gateway's
// own status string verbatim and is not part of the engine's closed
// booking/payment state machines.
//
// Fields:
//  ID              – primary key identifier.
//  BookingID       – owning booking (unique).
//  PaymentIntentID – external gateway intent identifier (unique).
//  Amount          – exact decimal amount of the attempt.
//  Currency        – lowercase 3-letter currency code.
//  Status          – gateway-reported status string.
//  PaymentMethod   – gateway payment-method descriptor, once known.
//  Metadata        – free-form JSON blob (e.g. client secret).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Payment struct {
    ID              uint64          `json:"id"`                 // payments.id
    BookingID       uint64          `json:"booking_id"`         // payments.booking_id (unique)
    PaymentIntentID string          `json:"payment_intent_id"`  // payments.payment_intent_id (unique)
    Amount          decimal.Decimal `json:"amount"`             // payments.amount
    Currency        string          `json:"currency"`           // payments.currency
    Status          string          `json:"status"`             // payments.status
    PaymentMethod   *string         `json:"payment_method"`     // payments.payment_method (nullable)
    Metadata        map[string]any  `json:"metadata,omitempty"` // payments.metadata (JSON column)
    CreatedAt       time.Time       `json:"created_at"`         // payments.created_at
    UpdatedAt       time.Time       `json:"updated_at"`         // payments.updated_at
}
