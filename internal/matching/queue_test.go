package matching

import (
    "context"
    "testing"
    "time"
)

// The processing path below the redis pop is exercised directly through the
// collaborator fakes; the pop/lock plumbing binds a live client and is
// covered by integration environments.

func queueSetup(t *testing.T) (*testEnv, *QueueProcessor, queueItem) {
    t.Helper()
    env := newTestEnv(t, hostProfile())
    old := time.Now().Add(-90 * 24 * time.Hour)
    env.repo.candidates = []Candidate{
        {UserID: 2, TypeCode: TypeLAEF, DistanceKm: 3, CreatedAt: old},
    }

    req, err := env.service.CreateMatchRequest(context.Background(), 1, validDTO())
    if err != nil {
        t.Fatal(err)
    }

    processor := NewQueueProcessor(nil, env.repo, env.cache, env.gateway, time.Second)
    processor.SetService(env.service)
    return env, processor, queueItem{RequestID: req.ID, Priority: 50}
}

func TestQueueProcess(t *testing.T) {
    t.Run("scores, caches and notifies under a deadline", func(t *testing.T) {
        env, processor, item := queueSetup(t)

        if err := processor.process(context.Background(), item); err != nil {
            t.Fatal(err)
        }
        if _, hit, _ := env.cache.Get(context.Background(), item.RequestID); !hit {
            t.Error("expected ranked results cached")
        }
        if len(env.gateway.found) != 1 {
            t.Fatalf("notified %d times, want 1", len(env.gateway.found))
        }
        if !env.gateway.foundDeadline {
            t.Error("notification ran on an unbounded context")
        }
    })

    t.Run("transient notify failure is retried once", func(t *testing.T) {
        env, processor, item := queueSetup(t)
        env.gateway.failFound = 1

        if err := processor.process(context.Background(), item); err != nil {
            t.Fatal(err)
        }
        if len(env.gateway.found) != 1 {
            t.Errorf("notified %d times, want the retry to deliver once", len(env.gateway.found))
        }
    })

    t.Run("notify failure never fails the round", func(t *testing.T) {
        env, processor, item := queueSetup(t)
        env.gateway.failFound = 2

        if err := processor.process(context.Background(), item); err != nil {
            t.Errorf("exhausted notify retries must not error the round: %v", err)
        }
        if _, hit, _ := env.cache.Get(context.Background(), item.RequestID); !hit {
            t.Error("results must stay cached even when notification fails")
        }
    })

    t.Run("closed requests are discarded without notifying", func(t *testing.T) {
        env, processor, item := queueSetup(t)
        env.repo.ExpireRequestIfOpen(context.Background(), item.RequestID, "cancelled by host")

        if err := processor.process(context.Background(), item); err != nil {
            t.Fatal(err)
        }
        if len(env.gateway.found) != 0 {
            t.Error("cancelled request produced a notification")
        }
    })

    t.Run("empty rounds cache and stay silent", func(t *testing.T) {
        env, processor, item := queueSetup(t)
        env.repo.candidates = nil

        if err := processor.process(context.Background(), item); err != nil {
            t.Fatal(err)
        }
        if _, hit, _ := env.cache.Get(context.Background(), item.RequestID); !hit {
            t.Error("empty result set was not cached")
        }
        if len(env.gateway.found) != 0 {
            t.Error("empty round produced a notification")
        }
    })
}
