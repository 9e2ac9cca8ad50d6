package notification

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/artmateapp/artmate-backend/internal/matching"
)

// fakeBroker records claims and publishes in memory and can be told to fail
// the next N publishes.
type fakeBroker struct {
    mu        sync.Mutex
    claims    map[string]bool
    published map[string]int
    failNext  int
}

func newFakeBroker() *fakeBroker {
    return &fakeBroker{
        claims:    make(map[string]bool),
        published: make(map[string]int),
    }
}

func (b *fakeBroker) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.claims[key] {
        return false, nil
    }
    b.claims[key] = true
    return true, nil
}

func (b *fakeBroker) Release(ctx context.Context, key string) error {
    b.mu.Lock()
    defer b.mu.Unlock()
    delete(b.claims, key)
    return nil
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, payload []byte) error {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.failNext > 0 {
        b.failNext--
        return errors.New("connection reset")
    }
    b.published[channel]++
    return nil
}

func testCandidates() []matching.ScoredCandidate {
    return []matching.ScoredCandidate{
        {Candidate: matching.Candidate{UserID: 2, Nickname: "guest", TypeCode: matching.TypeLAEF}, MatchScore: 88},
    }
}

func TestNotifyMatchesFound(t *testing.T) {
    t.Run("repeat delivery after success is suppressed", func(t *testing.T) {
        broker := newFakeBroker()
        g := &Gateway{broker: broker}

        for i := 0; i < 2; i++ {
            if err := g.NotifyMatchesFound(context.Background(), "req-1", 1, testCandidates()); err != nil {
                t.Fatal(err)
            }
        }
        if got := broker.published["user:1:events"]; got != 1 {
            t.Errorf("published %d events, want 1", got)
        }
    })

    t.Run("publish failure releases the claim so a retry delivers", func(t *testing.T) {
        broker := newFakeBroker()
        broker.failNext = 1
        g := &Gateway{broker: broker}

        if err := g.NotifyMatchesFound(context.Background(), "req-1", 1, testCandidates()); err == nil {
            t.Fatal("expected the failed publish to surface an error")
        }
        if got := broker.published["user:1:events"]; got != 0 {
            t.Fatalf("published %d events before the retry", got)
        }

        if err := g.NotifyMatchesFound(context.Background(), "req-1", 1, testCandidates()); err != nil {
            t.Fatalf("retry after a transient failure did not deliver: %v", err)
        }
        if got := broker.published["user:1:events"]; got != 1 {
            t.Errorf("published %d events after retry, want 1", got)
        }
    })
}

func TestNotifyMatchConfirmed(t *testing.T) {
    t.Run("delivers to every user once", func(t *testing.T) {
        broker := newFakeBroker()
        g := &Gateway{broker: broker}

        if err := g.NotifyMatchConfirmed(context.Background(), "req-1", []int64{1, 2}); err != nil {
            t.Fatal(err)
        }
        if broker.published["user:1:events"] != 1 || broker.published["user:2:events"] != 1 {
            t.Errorf("published = %v, want one event per user", broker.published)
        }
    })

    t.Run("mid-loop failure releases the claim and a retry reaches everyone", func(t *testing.T) {
        broker := newFakeBroker()
        firstUserDone := false
        g := &Gateway{broker: &failSecondBroker{inner: broker, firstDone: &firstUserDone}}

        if err := g.NotifyMatchConfirmed(context.Background(), "req-1", []int64{1, 2}); err == nil {
            t.Fatal("expected the second user's failed publish to surface an error")
        }
        if broker.published["user:2:events"] != 0 {
            t.Fatal("second user unexpectedly received the event")
        }

        g.broker = broker
        if err := g.NotifyMatchConfirmed(context.Background(), "req-1", []int64{1, 2}); err != nil {
            t.Fatalf("retry did not deliver: %v", err)
        }
        if broker.published["user:2:events"] != 1 {
            t.Errorf("second user got %d events after retry, want 1", broker.published["user:2:events"])
        }
    })
}

// failSecondBroker lets the first publish through and fails the next one,
// delegating everything else to the wrapped broker.
type failSecondBroker struct {
    inner     *fakeBroker
    firstDone *bool
}

func (b *failSecondBroker) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
    return b.inner.Claim(ctx, key, ttl)
}

func (b *failSecondBroker) Release(ctx context.Context, key string) error {
    return b.inner.Release(ctx, key)
}

func (b *failSecondBroker) Publish(ctx context.Context, channel string, payload []byte) error {
    if *b.firstDone {
        return errors.New("connection reset")
    }
    *b.firstDone = true
    return b.inner.Publish(ctx, channel, payload)
}
