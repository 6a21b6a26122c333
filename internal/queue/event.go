// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when payment for a booking
// succeeds and the booking is confirmed.  It carries enough for
// downstream consumers to log, notify, or feed analytics without
// querying the primary database.
type BookingConfirmedEvent struct {
    BookingID   uint64 `json:"booking_id"`
    UserID      uint64 `json:"user_id"`
    UserEmail   string `json:"user_email"`
    RoomID      uint64 `json:"room_id"`
    RoomName    string `json:"room_name"`
    BookingDate string `json:"booking_date"`
    StartTime   string `json:"start_time"`
    EndTime     string `json:"end_time"`
    TotalAmount string `json:"total_amount"`
    ConfirmedAt string `json:"confirmed_at"`
}
