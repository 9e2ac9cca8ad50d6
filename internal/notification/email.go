// internal/notification/email.go

package notification

import (
    "context"
    "fmt"
    "strings"

    "github.com/sendgrid/sendgrid-go"
    "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers the matches-found digest.
type EmailSender interface {
    SendMatchesDigest(ctx context.Context, to, nickname string, candidates []candidateBrief) error
}

// SendGridEmailSender implements EmailSender using SendGrid.
type SendGridEmailSender struct {
    apiKey string
    from   string
}

func NewSendGridEmailSender(apiKey, from string) EmailSender {
    return &SendGridEmailSender{
        apiKey: apiKey,
        from:   from,
    }
}

func (s *SendGridEmailSender) SendMatchesDigest(ctx context.Context, to, nickname string, candidates []candidateBrief) error {
    from := mail.NewEmail("ArtMate", s.from)
    recipient := mail.NewEmail(nickname, to)

    subject := fmt.Sprintf("%d companions found for your exhibition visit", len(candidates))

    var lines []string
    lines = append(lines, fmt.Sprintf("Hi %s,", nickname), "",
        "We found compatible companions for your exhibition visit:", "")
    for _, c := range candidates {
        lines = append(lines, fmt.Sprintf("  %s (%s) - %d%% match", c.Nickname, c.TypeCode, c.MatchScore))
    }
    lines = append(lines, "", "Open the app to accept a match before your request expires.")
    plainText := strings.Join(lines, "\n")

    var rows strings.Builder
    for _, c := range candidates {
        rows.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%d%%</td></tr>", c.Nickname, c.TypeCode, c.MatchScore))
    }
    htmlContent := fmt.Sprintf(
        "<p>Hi %s,</p><p>We found compatible companions for your exhibition visit:</p>"+
            "<table><tr><th>Nickname</th><th>Type</th><th>Match</th></tr>%s</table>"+
            "<p>Open the app to accept a match before your request expires.</p>",
        nickname, rows.String())

    message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)
    client := sendgrid.NewSendClient(s.apiKey)

    response, err := client.Send(message)
    if err != nil {
        return fmt.Errorf("failed to send email via SendGrid: %w", err)
    }
    if response.StatusCode >= 400 {
        return fmt.Errorf("SendGrid returned error status: %d", response.StatusCode)
    }
    return nil
}

// MockEmailSender records sends instead of delivering. Used in development
// and tests.
type MockEmailSender struct {
    Sent []string
}

func NewMockEmailSender() *MockEmailSender {
    return &MockEmailSender{}
}

func (m *MockEmailSender) SendMatchesDigest(ctx context.Context, to, nickname string, candidates []candidateBrief) error {
    m.Sent = append(m.Sent, to)
    return nil
}
