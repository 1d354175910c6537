package mailer

// Outgoing report mail over SMTP. The dialer seam keeps the network out of
// tests.

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"motorapi/internal/config"
)

// ErrDisabled is returned when no SMTP host is configured.
var ErrDisabled = errors.New("mailer: no smtp host configured")

// Mailer sends an assessment report to a recipient.
type Mailer interface {
	SendReport(to, subject, body, filename string, attachment []byte) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// smtpMailer is a concrete implementation of Mailer backed by gomail.
type smtpMailer struct {
	cfg  config.SMTPConfig
	dial dialer
}

var _ Mailer = (*smtpMailer)(nil)

// New builds a Mailer from SMTP settings. An empty host disables sending;
// SendReport then returns ErrDisabled.
func New(cfg config.SMTPConfig) Mailer {
	m := &smtpMailer{cfg: cfg}
	if cfg.Host != "" {
		m.dial = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

func (s *smtpMailer) SendReport(to, subject, body, filename string, attachment []byte) error {
	if s.dial == nil {
		return ErrDisabled
	}
	if to == "" {
		return errors.New("recipient is required")
	}
	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	if len(attachment) > 0 {
		m.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachment)
			return err
		}))
	}

	if err := s.dial.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
