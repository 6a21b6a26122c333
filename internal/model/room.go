package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Room represents a bookable resource with fixed capacity and daily
// operating hours.  Time is sold in fixed slots: SlotDurationMinutes
// defines the granularity and PricePerSlot the price of one slot.
// Rooms are owned by the catalog; the reservation engine only reads
// them, but locks the row for the duration of a booking attempt.
//
// Fields:
//  ID                  – primary key identifier.
//  Name                – display name of the room.
//  Description         – free-text description.
//  PricePerSlot        – exact decimal price for one slot.
//  Capacity            – maximum number of guests.
//  Amenities           – JSON-encoded list of amenity strings.
//  IsAvailable         – whether the room can be booked at all.
//  SlotDurationMinutes – length of one bookable slot in minutes.
//  OpeningTime         – daily opening time of day ("HH:MM:SS").
//  ClosingTime         – daily closing time of day ("HH:MM:SS").
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Room struct {
    ID                  uint64          `json:"id"`                    // rooms.id
    Name                string          `json:"name"`                  // rooms.name
    Description         string          `json:"description"`           // rooms.description
    PricePerSlot        decimal.Decimal `json:"price_per_slot"`        // rooms.price_per_slot
    Capacity            int             `json:"capacity"`              // rooms.capacity
    Amenities           []string        `json:"amenities"`             // rooms.amenities (JSON column)
    IsAvailable         bool            `json:"is_available"`          // rooms.is_available
    SlotDurationMinutes int             `json:"slot_duration_minutes"` // rooms.slot_duration_minutes
    OpeningTime         string          `json:"opening_time"`          // rooms.opening_time
    ClosingTime         string          `json:"closing_time"`          // rooms.closing_time
    CreatedAt           time.Time       `json:"created_at"`            // rooms.created_at
    UpdatedAt           time.Time       `json:"updated_at"`            // rooms.updated_at
}
