package digest

import (
	"context"
	"fmt"

	"github.com/guan-wang/guans-lala-land/internal/platform/sendgrid"
)

// SendGridTransport dispatches through the SendGrid v3 mail send API.
type SendGridTransport struct {
	client   sendgrid.Client
	from     string
	fromName string
}

func NewSendGridTransport(client sendgrid.Client, from, fromName string) *SendGridTransport {
	return &SendGridTransport{client: client, from: from, fromName: fromName}
}

func (t *SendGridTransport) Send(ctx context.Context, e Email) TransportResult {
	res, err := t.client.Send(ctx, sendgrid.SendEmailRequest{
		From:       sendgrid.EmailAddress{Email: t.from, Name: t.fromName},
		To:         []sendgrid.EmailAddress{{Email: e.To}},
		Subject:    e.Subject,
		HTML:       e.HTML,
		Categories: []string{"lesson-digest"},
	})
	if err != nil {
		return TransportResult{Status: StatusError, Message: fmt.Sprintf("Failed to send email: %v", err)}
	}
	return TransportResult{Status: StatusSuccess, Message: fmt.Sprintf("Email sent successfully (status: %d)", res.StatusCode)}
}
