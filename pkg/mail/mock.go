package mail

import (
	"sync"

	"veshop-backend/pkg/logger"

	"go.uber.org/zap"
)

// SentMail is one captured message.
type SentMail struct {
	To   string
	Kind string // "otp", "reset_code", "reset_link"
	Body string
}

// MockMailer logs instead of sending and records every message. Used in
// tests and when SMTP is not configured in development.
type MockMailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

func (m *MockMailer) SendOtp(to, otp string) error {
	return m.record(to, "otp", otp)
}

func (m *MockMailer) SendResetCode(to, code string) error {
	return m.record(to, "reset_code", code)
}

func (m *MockMailer) SendResetLink(to, link string) error {
	return m.record(to, "reset_link", link)
}

// Last returns the most recent message to the given address, if any.
func (m *MockMailer) Last(to string) (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].To == to {
			return m.Sent[i], true
		}
	}
	return SentMail{}, false
}

func (m *MockMailer) record(to, kind, body string) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, SentMail{To: to, Kind: kind, Body: body})
	m.mu.Unlock()

	if logger.Log != nil {
		logger.Debug("📧 MOCK MAIL",
			zap.String("to", to),
			zap.String("kind", kind),
			zap.String("body", body),
		)
	}
	return nil
}
