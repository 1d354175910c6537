package mailer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"motorapi/internal/config"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSendReport(t *testing.T) {
	dial := &fakeDialer{}
	m := &smtpMailer{
		cfg:  config.SMTPConfig{Host: "smtp.local", Port: 587, User: "api@clinic.local", From: "reports@clinic.local"},
		dial: dial,
	}

	err := m.SendReport("doctor@clinic.local", "Assessment report", "<p>attached</p>", "report.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Len(t, dial.sent, 1)

	msg := dial.sent[0]
	assert.Equal(t, []string{"reports@clinic.local"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"doctor@clinic.local"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Assessment report"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `filename="report.pdf"`)
}

func TestSendReport_FromDefaultsToUser(t *testing.T) {
	dial := &fakeDialer{}
	m := &smtpMailer{
		cfg:  config.SMTPConfig{Host: "smtp.local", User: "api@clinic.local"},
		dial: dial,
	}

	err := m.SendReport("doctor@clinic.local", "subject", "body", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"api@clinic.local"}, dial.sent[0].GetHeader("From"))
}

func TestSendReport_Disabled(t *testing.T) {
	m := New(config.SMTPConfig{})

	err := m.SendReport("doctor@clinic.local", "subject", "body", "", nil)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSendReport_MissingRecipient(t *testing.T) {
	m := &smtpMailer{cfg: config.SMTPConfig{Host: "smtp.local"}, dial: &fakeDialer{}}

	err := m.SendReport("", "subject", "body", "", nil)
	assert.Error(t, err)
}

func TestSendReport_DialError(t *testing.T) {
	m := &smtpMailer{
		cfg:  config.SMTPConfig{Host: "smtp.local"},
		dial: &fakeDialer{err: errors.New("connection refused")},
	}

	err := m.SendReport("doctor@clinic.local", "subject", "body", "", nil)
	assert.ErrorContains(t, err, "send mail: connection refused")
}
