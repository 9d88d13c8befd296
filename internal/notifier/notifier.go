package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Notifier delivers a ticket code to a student out-of-band. Implementations
// must return a definite error on failure: the ticket issuer deletes the
// ticket it just wrote whenever Send fails.
type Notifier interface {
	Send(ctx context.Context, email, ticketCode, electionTitle string) error
}

// SMTPNotifier sends ticket codes over plain SMTP
type SMTPNotifier struct {
	host     string
	port     string
	username string
	password string
	from     string
	logger   *zap.Logger
}

// NewSMTPNotifier creates an SMTP-backed notifier
func NewSMTPNotifier(host, port, username, password, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, email, ticketCode, electionTitle string) error {
	subject := fmt.Sprintf("Your voting ticket for %s", electionTitle)
	body := fmt.Sprintf("Your single-use voting ticket is %s. It expires in 5 minutes.", ticketCode)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", n.from, email, subject, body))

	auth := smtp.PlainAuth("", n.username, n.password, n.host)
	addr := n.host + ":" + n.port

	// net/smtp has no context support; run the dial in a goroutine so a
	// cancelled request does not hang on a stuck SMTP server.
	errCh := make(chan error, 1)
	go func() {
		errCh <- smtp.SendMail(addr, auth, n.from, []string{email}, msg)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			n.logger.Warn("ticket email dispatch failed",
				zap.String("election_title", electionTitle),
				zap.Error(err))
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogNotifier writes ticket codes to the log instead of sending email.
// Development only.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, email, ticketCode, electionTitle string) error {
	n.logger.Info("ticket issued (log notifier)",
		zap.String("email", email),
		zap.String("ticket_code", ticketCode),
		zap.String("election_title", electionTitle))
	return nil
}
