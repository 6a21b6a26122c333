package booking

import (
    "fmt"
    "strconv"
    "strings"

    "github.com/shopspring/decimal"
)

// ParseTimeOfDay converts a time-of-day string in "HH:MM" or
// "HH:MM:SS" form into minutes since midnight.  Seconds, when present,
// must be zero padded but are ignored for slot math; bookings are
// quantized to whole minutes.
func ParseTimeOfDay(s string) (int, error) {
    parts := strings.Split(strings.TrimSpace(s), ":")
    if len(parts) != 2 && len(parts) != 3 {
        return 0, fmt.Errorf("invalid time of day %q", s)
    }
    h, err := strconv.Atoi(parts[0])
    if err != nil || h < 0 || h > 23 {
        return 0, fmt.Errorf("invalid hour in %q", s)
    }
    m, err := strconv.Atoi(parts[1])
    if err != nil || m < 0 || m > 59 {
        return 0, fmt.Errorf("invalid minute in %q", s)
    }
    if len(parts) == 3 {
        if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
            return 0, fmt.Errorf("invalid second in %q", s)
        }
    }
    return h*60 + m, nil
}

// SlotPrice is the result of the slot calculator: the number of whole
// slots a [start, end) range covers and the exact decimal amount they
// cost.
type SlotPrice struct {
    Slots  int
    Amount decimal.Decimal
}

// CalculateSlots computes the slot count and total amount for a booking
// of [start, end) on a room priced at pricePerSlot per slotMinutes-long
// slot.  The range must already be validated (end strictly after
// start).  Partial slots are floored away; a range shorter than one
// slot fails with KindDurationTooShort.  The amount is computed in
// exact decimal arithmetic, never binary floats.
func CalculateSlots(start, end string, slotMinutes int, pricePerSlot decimal.Decimal) (SlotPrice, error) {
    startMin, err := ParseTimeOfDay(start)
    if err != nil {
        return SlotPrice{}, WrapError(KindInvalidRange, "invalid start time", err)
    }
    endMin, err := ParseTimeOfDay(end)
    if err != nil {
        return SlotPrice{}, WrapError(KindInvalidRange, "invalid end time", err)
    }
    if slotMinutes <= 0 {
        return SlotPrice{}, NewError(KindResourceUnavailable, "room has no slot duration")
    }
    slots := (endMin - startMin) / slotMinutes
    if slots < 1 {
        return SlotPrice{}, NewError(KindDurationTooShort, "booking duration must be at least one slot")
    }
    return SlotPrice{
        Slots:  slots,
        Amount: pricePerSlot.Mul(decimal.NewFromInt(int64(slots))),
    }, nil
}
