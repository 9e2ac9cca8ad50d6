// internal/notification/gateway.go
// Fan-out for matching engine events. Each event goes out over the realtime
// channels (websocket + redis pub/sub) and, behind feature flags, email and
// push. Delivery is idempotent per request id and event kind: the queue is
// at-least-once and will replay events after a crashed worker.

package notification

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "time"

    "github.com/go-redis/redis/v8"

    "github.com/artmateapp/artmate-backend/internal/matching"
)

const (
    dedupeKeyPrefix = "matching:notified:"
    dedupeTTL       = 24 * time.Hour
)

// broker is the slice of redis the gateway needs: a claim store for
// delivery dedupe and a publish channel per user.
type broker interface {
    Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
    Release(ctx context.Context, key string) error
    Publish(ctx context.Context, channel string, payload []byte) error
}

type redisBroker struct {
    client *redis.Client
}

func (b *redisBroker) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
    return b.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
}

func (b *redisBroker) Release(ctx context.Context, key string) error {
    return b.client.Del(ctx, key).Err()
}

func (b *redisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
    return b.client.Publish(ctx, channel, payload).Err()
}

// Gateway implements matching.NotificationGateway. Realtime events are
// published to redis only; the websocket hub's subscriber picks them up, so
// local and remote connections take the same path.
type Gateway struct {
    broker   broker
    contacts ContactRepository
    email    EmailSender // nil when email notifications are disabled
    push     PushSender  // nil when push notifications are disabled
}

func NewGateway(redisClient *redis.Client, contacts ContactRepository, email EmailSender, push PushSender) *Gateway {
    return &Gateway{
        broker:   &redisBroker{client: redisClient},
        contacts: contacts,
        email:    email,
        push:     push,
    }
}

// matchesFoundEvent is the payload published when scoring produces results.
type matchesFoundEvent struct {
    RequestID  string           `json:"request_id"`
    Candidates []candidateBrief `json:"candidates"`
}

type candidateBrief struct {
    UserID     int64  `json:"user_id"`
    Nickname   string `json:"nickname"`
    TypeCode   string `json:"type_code"`
    MatchScore int    `json:"match_score"`
}

type matchConfirmedEvent struct {
    RequestID string `json:"request_id"`
}

// NotifyMatchesFound tells the host their request produced candidates.
func (g *Gateway) NotifyMatchesFound(ctx context.Context, requestID string, hostUserID int64, candidates []matching.ScoredCandidate) error {
    fresh, err := g.markDelivered(ctx, requestID, "matches_found")
    if err != nil {
        return err
    }
    if !fresh {
        return nil
    }

    event := matchesFoundEvent{RequestID: requestID}
    for _, c := range candidates {
        event.Candidates = append(event.Candidates, candidateBrief{
            UserID:     c.UserID,
            Nickname:   c.Nickname,
            TypeCode:   string(c.TypeCode),
            MatchScore: c.MatchScore,
        })
    }

    if err := g.deliver(ctx, hostUserID, "matches_found", event); err != nil {
        // Give the claim back so the caller's retry is not a no-op.
        g.releaseClaim(requestID, "matches_found")
        return err
    }

    if g.email != nil {
        if err := g.sendMatchesDigest(ctx, hostUserID, event); err != nil {
            // Email is best effort. The realtime event already went out.
            log.Printf("matches digest email for user %d failed: %v", hostUserID, err)
        }
    }
    if g.push != nil {
        title := "New companions found"
        body := fmt.Sprintf("%d compatible companions for your exhibition visit", len(event.Candidates))
        if err := g.sendPush(ctx, hostUserID, title, body, requestID); err != nil {
            log.Printf("push for user %d failed: %v", hostUserID, err)
        }
    }
    return nil
}

// NotifyMatchConfirmed tells both sides the match is locked in.
func (g *Gateway) NotifyMatchConfirmed(ctx context.Context, requestID string, userIDs []int64) error {
    fresh, err := g.markDelivered(ctx, requestID, "match_confirmed")
    if err != nil {
        return err
    }
    if !fresh {
        return nil
    }

    event := matchConfirmedEvent{RequestID: requestID}
    for _, userID := range userIDs {
        if err := g.deliver(ctx, userID, "match_confirmed", event); err != nil {
            // A mid-loop failure releases the claim so a retry can reach
            // every user; earlier recipients may see the event twice, which
            // the at-least-once contract allows.
            g.releaseClaim(requestID, "match_confirmed")
            return err
        }
        if g.push != nil {
            if err := g.sendPush(ctx, userID, "Match confirmed", "Your exhibition companion is confirmed. Time to plan the visit!", requestID); err != nil {
                log.Printf("push for user %d failed: %v", userID, err)
            }
        }
    }
    return nil
}

// markDelivered claims the (request, event) pair. Returns false when another
// delivery already claimed it.
func (g *Gateway) markDelivered(ctx context.Context, requestID, event string) (bool, error) {
    key := dedupeKey(requestID, event)
    fresh, err := g.broker.Claim(ctx, key, dedupeTTL)
    if err != nil {
        return false, fmt.Errorf("failed to claim notification %s: %w", key, err)
    }
    return fresh, nil
}

// releaseClaim undoes a claim after a failed delivery. It runs on a fresh
// context: the failure may be a deadline on the caller's context, and the
// claim has to come off regardless or the event stays suppressed for a day.
func (g *Gateway) releaseClaim(requestID, event string) {
    key := dedupeKey(requestID, event)
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := g.broker.Release(ctx, key); err != nil {
        log.Printf("failed to release notification claim %s: %v", key, err)
    }
}

func dedupeKey(requestID, event string) string {
    return dedupeKeyPrefix + requestID + ":" + event
}

// deliver publishes the event on the user's redis channel. Every API
// instance subscribes and forwards to its own websocket connections.
func (g *Gateway) deliver(ctx context.Context, userID int64, eventType string, payload interface{}) error {
    envelope, err := json.Marshal(map[string]interface{}{
        "type": eventType,
        "data": payload,
    })
    if err != nil {
        return err
    }

    channel := fmt.Sprintf("user:%d:events", userID)
    if err := g.broker.Publish(ctx, channel, envelope); err != nil {
        return fmt.Errorf("failed to publish %s to %s: %w", eventType, channel, err)
    }
    return nil
}

func (g *Gateway) sendMatchesDigest(ctx context.Context, userID int64, event matchesFoundEvent) error {
    contact, err := g.contacts.GetContact(ctx, userID)
    if err != nil {
        return err
    }
    if contact.Email == "" {
        return nil
    }
    return g.email.SendMatchesDigest(ctx, contact.Email, contact.Nickname, event.Candidates)
}

func (g *Gateway) sendPush(ctx context.Context, userID int64, title, body, requestID string) error {
    contact, err := g.contacts.GetContact(ctx, userID)
    if err != nil {
        return err
    }
    if len(contact.DeviceTokens) == 0 {
        return nil
    }
    return g.push.SendPush(ctx, contact.DeviceTokens, title, body, map[string]string{
        "request_id": requestID,
    })
}
