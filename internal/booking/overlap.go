package booking

import "github.com/iliyamo/room-reservation/internal/model"

// FindConflict scans the caller-supplied snapshot of blocking bookings
// (status pending or confirmed, same room and date) for one whose
// [start, end) interval overlaps the candidate range.  Two intervals
// conflict iff candidate.start < existing.end and candidate.end >
// existing.start; touching boundaries do not conflict.  The snapshot is
// iterated in the order given (creation order when loaded from the
// store), so the first conflict returned is deterministic.  excludeID,
// when non-zero, skips that booking so a booking can be re-evaluated
// against its peers.  It returns nil when the candidate is free.
//
// The scan is linear; the number of blocking bookings for one room-day
// is bounded by operating hours over slot granularity.
func FindConflict(start, end string, existing []model.Booking, excludeID uint64) (*model.Booking, error) {
    candStart, err := ParseTimeOfDay(start)
    if err != nil {
        return nil, WrapError(KindInvalidRange, "invalid start time", err)
    }
    candEnd, err := ParseTimeOfDay(end)
    if err != nil {
        return nil, WrapError(KindInvalidRange, "invalid end time", err)
    }
    for i := range existing {
        b := &existing[i]
        if excludeID != 0 && b.ID == excludeID {
            continue
        }
        if !b.Blocking() {
            continue
        }
        exStart, err := ParseTimeOfDay(b.StartTime)
        if err != nil {
            return nil, err
        }
        exEnd, err := ParseTimeOfDay(b.EndTime)
        if err != nil {
            return nil, err
        }
        if candStart < exEnd && candEnd > exStart {
            return b, nil
        }
    }
    return nil, nil
}
