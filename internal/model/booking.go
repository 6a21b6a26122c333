package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Booking lifecycle statuses.  Pending and confirmed bookings block
// their time interval; the rest release it.
const (
    BookingPending   = "pending"
    BookingConfirmed = "confirmed"
    BookingCancelled = "cancelled"
    BookingExpired   = "expired"
    BookingCompleted = "completed"
)

// Payment statuses mirrored on the booking.  They track the payment
// lifecycle independently of the booking lifecycle.
const (
    PaymentPending    = "pending"
    PaymentProcessing = "processing"
    PaymentSucceeded  = "succeeded"
    PaymentFailed     = "failed"
    PaymentRefunded   = "refunded"
)

// Booking records a user's claim on a room for a date and a half-open
// [start, end) time interval.  NumberOfSlots and TotalAmount are always
// derived by the engine, never supplied by a caller.  A pending booking
// carries a hold deadline; when it elapses without payment the booking
// expires and the interval is released.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who made the booking.
//  RoomID          – room being booked.
//  BookingDate     – calendar date ("2006-01-02").
//  StartTime       – start time of day ("HH:MM:SS"), inclusive.
//  EndTime         – end time of day ("HH:MM:SS"), exclusive.
//  GuestCount      – number of guests; must not exceed room capacity.
//  TotalAmount     – derived exact decimal price.
//  NumberOfSlots   – derived slot count (>= 1).
//  Status          – booking lifecycle status.
//  PaymentStatus   – payment lifecycle status.
//  SpecialRequests – optional free-text note.
//  HoldExpiresAt   – hold deadline; meaningful only while both statuses
//                    are pending.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
    ID              uint64          `json:"id"`               // bookings.id
    UserID          uint64          `json:"user_id"`          // bookings.user_id
    RoomID          uint64          `json:"room_id"`          // bookings.room_id
    BookingDate     string          `json:"booking_date"`     // bookings.booking_date
    StartTime       string          `json:"start_time"`       // bookings.start_time
    EndTime         string          `json:"end_time"`         // bookings.end_time
    GuestCount      int             `json:"guest_count"`      // bookings.guest_count
    TotalAmount     decimal.Decimal `json:"total_amount"`     // bookings.total_amount
    NumberOfSlots   int             `json:"number_of_slots"`  // bookings.number_of_slots
    Status          string          `json:"status"`           // bookings.status
    PaymentStatus   string          `json:"payment_status"`   // bookings.payment_status
    SpecialRequests *string         `json:"special_requests"` // bookings.special_requests (nullable)
    HoldExpiresAt   *time.Time      `json:"hold_expires_at"`  // bookings.hold_expires_at (nullable)
    CreatedAt       time.Time       `json:"created_at"`       // bookings.created_at
    UpdatedAt       time.Time       `json:"updated_at"`       // bookings.updated_at
}

// Blocking reports whether the booking counts toward the overlap
// invariant for its room and date.
func (b *Booking) Blocking() bool {
    return b.Status == BookingPending || b.Status == BookingConfirmed
}

// HoldExpired reports whether the booking's hold deadline has passed at
// the given instant.  Only a booking still pending on both lifecycles
// has a live hold; for every other state the deadline is void.
func (b *Booking) HoldExpired(now time.Time) bool {
    if b.HoldExpiresAt == nil {
        return false
    }
    if b.Status != BookingPending || b.PaymentStatus != PaymentPending {
        return false
    }
    return now.After(*b.HoldExpiresAt)
}

// BookingDetail is a booking joined with display fields from the owning
// user and room rows.  It is what read endpoints and the create
// operation return.
type BookingDetail struct {
    Booking
    UserName  string `json:"user_name"`  // users.email (username equals email)
    UserEmail string `json:"user_email"` // users.email
    RoomName  string `json:"room_name"`  // rooms.name
}
