package booking

import (
    "context"
    "log"
    "time"
)

// SweepStore is the storage contract of the hold sweeper.  ExpireHold
// must run in its own transaction, re-acquire the booking's room row
// lock, re-check that the booking is still pending on both lifecycles
// with an elapsed deadline, and only then mark it expired.  It reports
// whether the booking was actually transitioned, so a booking settled
// concurrently by a gateway event or another sweep is a no-op.
type SweepStore interface {
    ExpiredHoldCandidates(ctx context.Context, now time.Time) ([]uint64, error)
    ExpireHold(ctx context.Context, bookingID uint64, now time.Time) (bool, error)
}

// Sweeper periodically reclaims pending bookings whose hold deadline
// has elapsed without payment.  This is what frees a room's slot when a
// payer abandons the gateway flow and no cancellation event ever
// arrives.
type Sweeper struct {
    store    SweepStore
    interval time.Duration
    now      func() time.Time
}

// NewSweeper returns a Sweeper that scans every interval.  An interval
// of zero or less falls back to one minute.
func NewSweeper(store SweepStore, interval time.Duration) *Sweeper {
    if store == nil {
        panic("nil store passed to booking.NewSweeper")
    }
    if interval <= 0 {
        interval = time.Minute
    }
    return &Sweeper{store: store, interval: interval, now: func() time.Time { return time.Now().UTC() }}
}

// Run sweeps on a ticker until the context is cancelled.  Sweep errors
// are logged and do not stop the loop; a failed pass is retried on the
// next tick.
func (s *Sweeper) Run(ctx context.Context) {
    t := time.NewTicker(s.interval)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-t.C:
            if n, err := s.SweepOnce(ctx); err != nil {
                log.Printf("sweeper: sweep failed: %v", err)
            } else if n > 0 {
                log.Printf("sweeper: expired %d abandoned hold(s)", n)
            }
        }
    }
}

// SweepOnce expires every booking whose hold deadline has elapsed and
// returns how many were transitioned.  Candidates that were settled
// between the scan and the per-booking transaction are skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
    now := s.now()
    ids, err := s.store.ExpiredHoldCandidates(ctx, now)
    if err != nil {
        return 0, err
    }
    expired := 0
    for _, id := range ids {
        ok, err := s.store.ExpireHold(ctx, id, now)
        if err != nil {
            log.Printf("sweeper: expire booking %d failed: %v", id, err)
            continue
        }
        if ok {
            expired++
        }
    }
    return expired, nil
}
