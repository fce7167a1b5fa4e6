package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/prasanthmj/webmail/pkg/config"
)

// Transmitter sends outgoing mail over SMTP with STARTTLS
type Transmitter struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewTransmitter creates a new SMTP transmitter
func NewTransmitter(cfg *config.Config, log *logrus.Logger) *Transmitter {
	return &Transmitter{
		cfg: cfg,
		log: log,
	}
}

// Send validates and transmits one message, returning the generated
// Message-Id on success
func (t *Transmitter) Send(opts SendOptions) (string, error) {
	if len(opts.To) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if opts.Subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if opts.Body == "" {
		return "", fmt.Errorf("email body is required")
	}

	e := email.NewEmail()
	e.From = t.cfg.EmailAddress
	e.To = opts.To
	if len(opts.CC) > 0 {
		e.Cc = opts.CC
	}
	if len(opts.BCC) > 0 {
		e.Bcc = opts.BCC
	}
	e.Subject = opts.Subject
	e.Text = []byte(opts.Body)

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.cfg.SMTPServer)
	e.Headers.Set("Message-Id", id)

	addr := fmt.Sprintf("%s:%d", t.cfg.SMTPServer, t.cfg.SMTPPort)
	auth := smtp.PlainAuth("", t.cfg.EmailAddress, t.cfg.EmailPassword, t.cfg.SMTPServer)

	err := e.SendWithStartTLS(addr, auth, &tls.Config{
		ServerName: t.cfg.SMTPServer,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	t.log.WithFields(logrus.Fields{
		"message_id": id,
		"recipients": len(opts.To) + len(opts.CC) + len(opts.BCC),
	}).Info("email sent")

	return id, nil
}
