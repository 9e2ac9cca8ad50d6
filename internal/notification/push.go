// internal/notification/push.go

package notification

import (
    "context"
    "errors"
    "log"

    firebase "firebase.google.com/go/v4"
    "firebase.google.com/go/v4/messaging"
    "google.golang.org/api/option"
)

// PushSender delivers a push notification to a set of device tokens.
type PushSender interface {
    SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// FCMPushSender implements PushSender using Firebase Cloud Messaging.
type FCMPushSender struct {
    client *messaging.Client
}

func NewFCMPushSender(ctx context.Context, credentialsPath string) (*FCMPushSender, error) {
    if credentialsPath == "" {
        return nil, errors.New("firebase credentials path is required")
    }

    opt := option.WithCredentialsFile(credentialsPath)
    app, err := firebase.NewApp(ctx, nil, opt)
    if err != nil {
        return nil, err
    }

    client, err := app.Messaging(ctx)
    if err != nil {
        return nil, err
    }

    return &FCMPushSender{client: client}, nil
}

func (s *FCMPushSender) SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
    if len(tokens) == 0 {
        return errors.New("no tokens provided")
    }

    notification := &messaging.Notification{
        Title: title,
        Body:  body,
    }

    messages := make([]*messaging.Message, 0, len(tokens))
    for _, token := range tokens {
        messages = append(messages, &messaging.Message{
            Token:        token,
            Notification: notification,
            Data:         data,
            Android: &messaging.AndroidConfig{
                Priority: "high",
            },
            APNS: &messaging.APNSConfig{
                Headers: map[string]string{"apns-priority": "10"},
            },
        })
    }

    batchResponse, err := s.client.SendAll(ctx, messages)
    if err != nil {
        return err
    }

    if batchResponse.FailureCount > 0 {
        for idx, resp := range batchResponse.Responses {
            if resp.Error != nil {
                log.Printf("Failed to send to token %s: %v", tokens[idx], resp.Error)
            }
        }
    }
    return nil
}

// MockPushSender records sends instead of delivering.
type MockPushSender struct {
    Sent []string
}

func NewMockPushSender() *MockPushSender {
    return &MockPushSender{}
}

func (m *MockPushSender) SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
    m.Sent = append(m.Sent, tokens...)
    return nil
}
