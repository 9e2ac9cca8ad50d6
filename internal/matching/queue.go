package matching

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/go-redis/redis/v8"
)

const (
    queueKey      = "matching:queue"
    lockKeyPrefix = "matching:lock:"
    poolKeyPrefix = "matching:pool:"

    // lockTTL bounds how long one worker can hold a request id; a crashed
    // worker's lock falls off and the re-enqueued item gets picked up.
    lockTTL = 2 * time.Minute

    // maxProcessAttempts bounds at-least-once redelivery before the request
    // is expired with a diagnostic reason.
    maxProcessAttempts = 3

    // highPriorityThreshold routes boosted requests to the front of the line.
    highPriorityThreshold = 70

    popTimeout = 5 * time.Second
)

type queueItem struct {
    RequestID  string `json:"request_id"`
    Priority   int    `json:"priority"`
    Attempts   int    `json:"attempts"`
    EnqueuedAt int64  `json:"enqueued_at"`
}

// QueueProcessor is the single consumer of the matching work queue. It may
// run with several workers, but a per-request lock guarantees no two workers
// ever process the same request id concurrently.
type QueueProcessor struct {
    client        *redis.Client
    repo          Repository
    service       Service
    cache         ResultCache
    gateway       NotificationGateway
    notifyTimeout time.Duration
}

func NewQueueProcessor(client *redis.Client, repo Repository, cache ResultCache, gateway NotificationGateway, notifyTimeout time.Duration) *QueueProcessor {
    if notifyTimeout <= 0 {
        notifyTimeout = defaultCollaboratorTimeout
    }
    return &QueueProcessor{
        client:        client,
        repo:          repo,
        cache:         cache,
        gateway:       gateway,
        notifyTimeout: notifyTimeout,
    }
}

// SetService wires the scoring service in after construction. The service
// holds the processor as its Enqueuer, so one side has to bind late.
func (q *QueueProcessor) SetService(service Service) {
    q.service = service
}

// Enqueue pushes a request onto the queue. The queue drains from the tail,
// so high-priority items are pushed there to be picked up next. A pool
// metadata key mirrors the queue entry for the lifetime of the request, so
// operators can inspect what is (or was) in flight.
func (q *QueueProcessor) Enqueue(ctx context.Context, requestID string, priority int) error {
    payload, err := json.Marshal(queueItem{
        RequestID:  requestID,
        Priority:   priority,
        EnqueuedAt: time.Now().UnixMilli(),
    })
    if err != nil {
        return err
    }

    if priority >= highPriorityThreshold {
        err = q.client.RPush(ctx, queueKey, payload).Err()
    } else {
        err = q.client.LPush(ctx, queueKey, payload).Err()
    }
    if err != nil {
        return fmt.Errorf("failed to enqueue match request: %w", err)
    }

    if err := q.client.Set(ctx, poolKeyPrefix+requestID, payload, RequestTTL).Err(); err != nil {
        log.Printf("matching: failed to write pool metadata for %s: %v", requestID, err)
    }
    return nil
}

// Run consumes the queue until the context is cancelled. Spawn one goroutine
// per worker; the per-request lock keeps them disjoint.
func (q *QueueProcessor) Run(ctx context.Context) {
    log.Println("matching: queue worker started")
    for {
        if ctx.Err() != nil {
            log.Println("matching: queue worker stopping")
            return
        }

        result, err := q.client.BRPop(ctx, popTimeout, queueKey).Result()
        if err == redis.Nil {
            continue
        }
        if err != nil {
            if ctx.Err() != nil {
                log.Println("matching: queue worker stopping")
                return
            }
            log.Printf("matching: queue pop failed: %v", err)
            time.Sleep(time.Second)
            continue
        }

        // BRPop returns [key, value].
        q.processItem(ctx, result[1])
    }
}

func (q *QueueProcessor) processItem(ctx context.Context, raw string) {
    started := time.Now()
    defer func() { RecordQueueProcessing(time.Since(started)) }()

    var item queueItem
    if err := json.Unmarshal([]byte(raw), &item); err != nil {
        log.Printf("matching: dropping malformed queue item: %v", err)
        return
    }

    lockKey := lockKeyPrefix + item.RequestID
    locked, err := q.client.SetNX(ctx, lockKey, "1", lockTTL).Result()
    if err != nil {
        log.Printf("matching: lock acquisition failed for %s: %v", item.RequestID, err)
        q.requeue(ctx, item)
        return
    }
    if !locked {
        // Another worker holds this request id; put it back for later.
        q.requeue(ctx, item)
        return
    }
    defer q.client.Del(context.Background(), lockKey)

    if err := q.process(ctx, item); err != nil {
        item.Attempts++
        if item.Attempts < maxProcessAttempts {
            log.Printf("matching: processing failed for %s (attempt %d), re-enqueueing: %v", item.RequestID, item.Attempts, err)
            RecordQueueRetry()
            q.requeue(ctx, item)
            return
        }

        reason := fmt.Sprintf("matching failed after %d attempts: %v", item.Attempts, err)
        if _, expireErr := q.repo.ExpireRequestIfOpen(ctx, item.RequestID, reason); expireErr != nil {
            log.Printf("matching: failed to expire request %s: %v", item.RequestID, expireErr)
        } else {
            log.Printf("matching: request %s expired: %s", item.RequestID, reason)
        }
    }
}

// process runs one scoring round for an open request: retrieve, score,
// adjust, cache, notify. Requests that are no longer open are discarded.
func (q *QueueProcessor) process(ctx context.Context, item queueItem) error {
    req, err := q.repo.GetMatchRequest(ctx, item.RequestID)
    if errors.Is(err, ErrRequestNotFound) {
        return nil
    }
    if err != nil {
        return err
    }
    if req.Status != StatusOpen {
        return nil
    }

    ranked, err := q.service.ScoreRequest(ctx, req)
    if err != nil {
        return err
    }

    if err := q.cache.Put(ctx, item.RequestID, ranked, ResultTTL); err != nil {
        return err
    }

    if len(ranked) == 0 {
        return nil
    }

    // Re-check right before emitting: the host may have cancelled while we
    // were scoring, and cancelled requests must not notify anyone.
    status, err := q.repo.GetRequestStatus(ctx, item.RequestID)
    if err != nil || status != StatusOpen {
        return nil
    }

    top := ranked
    if len(top) > 3 {
        top = top[:3]
    }
    notifyCtx, cancel := context.WithTimeout(ctx, q.notifyTimeout)
    defer cancel()
    if err := q.gateway.NotifyMatchesFound(notifyCtx, item.RequestID, req.HostUserID, top); err != nil {
        log.Printf("matching: matches-found notify failed for %s, retrying once: %v", item.RequestID, err)
        if err := q.gateway.NotifyMatchesFound(notifyCtx, item.RequestID, req.HostUserID, top); err != nil {
            log.Printf("matching: matches-found notify retry failed for %s: %v", item.RequestID, err)
        }
    }
    return nil
}

func (q *QueueProcessor) requeue(ctx context.Context, item queueItem) {
    payload, err := json.Marshal(item)
    if err != nil {
        return
    }
    if err := q.client.LPush(ctx, queueKey, payload).Err(); err != nil {
        log.Printf("matching: re-enqueue failed for %s: %v", item.RequestID, err)
    }
}
