package matching

import (
    "context"
    "log"
    "time"
)

// Sweeper owns the scheduled lifecycle transitions: open requests past their
// TTL become expired, matched requests past their visit date become
// completed. The host application starts it once; tests drive the service
// methods directly.
type Sweeper struct {
    service  Service
    interval time.Duration
}

func NewSweeper(service Service, interval time.Duration) *Sweeper {
    if interval <= 0 {
        interval = 10 * time.Minute
    }
    return &Sweeper{service: service, interval: interval}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
    log.Printf("matching: sweeper started with interval %v", s.interval)

    s.sweep(ctx)

    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()

    for {
        select {
        case <-ticker.C:
            s.sweep(ctx)
        case <-ctx.Done():
            log.Println("matching: sweeper stopped")
            return
        }
    }
}

func (s *Sweeper) sweep(ctx context.Context) {
    if expired, err := s.service.ExpireStaleRequests(ctx); err != nil {
        log.Printf("matching: expiry sweep failed: %v", err)
    } else if expired > 0 {
        log.Printf("matching: expired %d stale requests", expired)
    }

    if completed, err := s.service.CompleteElapsedMatches(ctx); err != nil {
        log.Printf("matching: completion sweep failed: %v", err)
    } else if completed > 0 {
        log.Printf("matching: completed %d elapsed matches", completed)
    }
}
