// Package mailer delivers account emails over SMTP, through a RabbitMQ
// outbox queue, or into the log for local runs.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

const (
	TransportLog  = "log"
	TransportSMTP = "smtp"
	TransportAMQP = "amqp"
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the request logger instead of delivering them.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	l := s.Logger
	if l == nil {
		l = logging.FromContext(ctx)
	}
	l.Info("mail_logged", "to", msg.To, "subject", msg.Subject, "body", msg.HTML)
	return nil
}

func VerificationEmail(from, to, origin, token string) Message {
	var body string
	if origin != "" {
		link := fmt.Sprintf("%s/account/verify-email?token=%s", strings.TrimRight(origin, "/"), token)
		body = fmt.Sprintf(`<p>Please click the below link to verify your email address:</p><p><a href="%s">%s</a></p>`, link, link)
	} else {
		body = fmt.Sprintf(`<p>Please use the below token to verify your email address with the <code>/api/auth/verify-email</code> api route:</p><p><code>%s</code></p>`, token)
	}
	return Message{
		From:    from,
		To:      to,
		Subject: "Sign-up Verification - Verify Email",
		HTML:    "<h4>Verify Email</h4><p>Thanks for registering!</p>" + body,
	}
}

func ResetPasswordEmail(from, to, origin, token string) Message {
	var body string
	if origin != "" {
		link := fmt.Sprintf("%s/account/reset-password?token=%s", strings.TrimRight(origin, "/"), token)
		body = fmt.Sprintf(`<p>Please click the below link to reset your password, the link will be valid for 1 day:</p><p><a href="%s">%s</a></p>`, link, link)
	} else {
		body = fmt.Sprintf(`<p>Please use the below token to reset your password with the <code>/api/auth/reset-password</code> api route:</p><p><code>%s</code></p>`, token)
	}
	return Message{
		From:    from,
		To:      to,
		Subject: "Sign-up Verification - Reset Password",
		HTML:    "<h4>Reset Password Email</h4>" + body,
	}
}
