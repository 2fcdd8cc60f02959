// internal/dispatch/smtp.go
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	appErrors "github.com/leadforge/leadforge-backend/internal/errors"
)

// SMTPSender delivers outreach mail over the tenant's SMTP server via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	timeout   time.Duration
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string, timeout time.Duration) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
		timeout:   timeout,
	}
}

var _ Sender = (*SMTPSender)(nil)

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		// A recipient go-mail refuses to address will never deliver.
		return appErrors.NewPermanentSend(fmt.Sprintf("invalid recipient %s: %v", to, err))
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(s.timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		if permanentSMTP(err) {
			return appErrors.NewPermanentSend(err.Error())
		}
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// permanentSMTP spots 5xx provider rejections in the returned error text.
// Anything else (timeouts, 4xx greylisting, connection resets) stays
// transient and goes back through the retry policy.
func permanentSMTP(err error) bool {
	msg := err.Error()
	for _, code := range []string{"550", "551", "553", "554"} {
		if strings.Contains(msg, code+" ") {
			return true
		}
	}
	return false
}
