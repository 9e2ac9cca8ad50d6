// internal/notification/websocket.go
// Realtime event delivery to connected clients. Cross-instance delivery goes
// through redis pub/sub; the subscriber feeds events back into the local hub.

package notification

import (
    "context"
    "encoding/json"
    "log"
    "net/http"
    "strconv"
    "strings"

    "github.com/go-redis/redis/v8"
    "github.com/gorilla/websocket"

    "github.com/artmateapp/artmate-backend/internal/auth"
)

var upgrader = websocket.Upgrader{
    CheckOrigin: func(r *http.Request) bool {
        // Configure origin checking in production
        return true
    },
}

type Hub struct {
    clients    map[int64]*Client
    broadcast  chan Event
    register   chan *Client
    unregister chan *Client
}

type Client struct {
    hub    *Hub
    conn   *websocket.Conn
    send   chan Event
    userID int64
}

type Event struct {
    Type   string      `json:"type"`
    UserID int64       `json:"-"`
    Data   interface{} `json:"data"`
}

func NewHub() *Hub {
    return &Hub{
        clients:    make(map[int64]*Client),
        broadcast:  make(chan Event),
        register:   make(chan *Client),
        unregister: make(chan *Client),
    }
}

func (h *Hub) Run() {
    for {
        select {
        case client := <-h.register:
            h.clients[client.userID] = client
            log.Printf("User %d connected", client.userID)

        case client := <-h.unregister:
            if _, ok := h.clients[client.userID]; ok {
                delete(h.clients, client.userID)
                close(client.send)
                log.Printf("User %d disconnected", client.userID)
            }

        case event := <-h.broadcast:
            if client, ok := h.clients[event.UserID]; ok {
                select {
                case client.send <- event:
                default:
                    close(client.send)
                    delete(h.clients, event.UserID)
                }
            }
        }
    }
}

// Send queues an event for a locally connected user. Users connected to
// other instances receive the event through the pub/sub subscriber.
func (h *Hub) Send(userID int64, eventType string, data interface{}) {
    h.broadcast <- Event{Type: eventType, UserID: userID, Data: data}
}

// SubscribeUserEvents bridges redis pub/sub into the local hub. Each API
// instance runs one subscriber covering all user channels.
func (h *Hub) SubscribeUserEvents(ctx context.Context, redisClient *redis.Client) {
    sub := redisClient.PSubscribe(ctx, "user:*:events")
    defer sub.Close()

    for {
        msg, err := sub.ReceiveMessage(ctx)
        if err != nil {
            if ctx.Err() != nil {
                return
            }
            log.Printf("pubsub receive failed: %v", err)
            continue
        }

        userID, ok := userIDFromChannel(msg.Channel)
        if !ok {
            continue
        }

        var envelope struct {
            Type string          `json:"type"`
            Data json.RawMessage `json:"data"`
        }
        if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
            log.Printf("malformed event on %s: %v", msg.Channel, err)
            continue
        }

        h.Send(userID, envelope.Type, envelope.Data)
    }
}

func userIDFromChannel(channel string) (int64, bool) {
    parts := strings.Split(channel, ":")
    if len(parts) != 3 {
        return 0, false
    }
    userID, err := strconv.ParseInt(parts[1], 10, 64)
    if err != nil {
        return 0, false
    }
    return userID, true
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        http.Error(w, "unauthorized", http.StatusUnauthorized)
        return
    }

    conn, err := upgrader.Upgrade(w, r, nil)
    if err != nil {
        log.Println(err)
        return
    }

    client := &Client{
        hub:    h,
        conn:   conn,
        send:   make(chan Event, 256),
        userID: userID,
    }

    client.hub.register <- client

    go client.writePump()
    go client.readPump()
}

func (c *Client) readPump() {
    defer func() {
        c.hub.unregister <- c
        c.conn.Close()
    }()

    for {
        if _, _, err := c.conn.ReadMessage(); err != nil {
            break
        }
    }
}

func (c *Client) writePump() {
    defer c.conn.Close()

    for event := range c.send {
        if err := c.conn.WriteJSON(event); err != nil {
            return
        }
    }
    c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
