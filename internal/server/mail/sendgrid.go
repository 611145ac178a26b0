package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/verigate/verigate/internal/logging"
	"github.com/verigate/verigate/internal/server/config"
)

// SendGridMailer sends mail through the SendGrid v3 API. The sender address
// must be validated on the SendGrid account or the API rejects the request.
type SendGridMailer struct {
	client     *sendgrid.Client
	senderName string
	senderAddr string
	logger     logging.Logger
}

func NewSendGridMailer(cfg *config.Config, l logging.Logger) *SendGridMailer {
	return &SendGridMailer{
		client:     sendgrid.NewSendClient(cfg.SendGridAPIKey),
		senderName: cfg.SenderName,
		senderAddr: cfg.SenderAddress,
		logger:     l.With("module", "sendgrid_mailer"),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(m.senderName, m.senderAddr)
	to := sgmail.NewEmail("", msg.To)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, "Email verification email", msg.HTMLBody)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid request error: %w", err)
	}

	// The v3 mail send endpoint answers 202 on acceptance.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		m.logger.Error(ctx, "SendGrid rejected message", "status", resp.StatusCode)
		return fmt.Errorf("sendgrid response status %d", resp.StatusCode)
	}

	m.logger.Debug(ctx, "Message dispatched", "to", msg.To)
	return nil
}
