package mail

import (
	"fmt"

	"veshop-backend/pkg/config"

	"gopkg.in/gomail.v2"
)

// Mailer delivers the auth emails. Handlers only depend on this interface;
// delivery failures are the caller's to surface.
type Mailer interface {
	SendOtp(to, otp string) error
	SendResetCode(to, code string) error
	SendResetLink(to, link string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	sender   string
	password string
}

// NewSMTPMailer builds a mailer from config.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.MailHost,
		port:     cfg.MailPort,
		sender:   cfg.MailSender,
		password: cfg.MailPassword,
	}
}

func (m *SMTPMailer) SendOtp(to, otp string) error {
	body := fmt.Sprintf("<p>Mã xác thực đăng ký của bạn là: <b>%s</b></p>", otp)
	return m.send(to, "Xác thực đăng ký", body)
}

func (m *SMTPMailer) SendResetCode(to, code string) error {
	body := fmt.Sprintf("<p>Mã xác nhận của bạn là: <b>%s</b>. Mã này sẽ hết hạn sau 1 giờ.</p>", code)
	return m.send(to, "Mã xác nhận khôi phục mật khẩu", body)
}

func (m *SMTPMailer) SendResetLink(to, link string) error {
	body := fmt.Sprintf(`<h1>Click <a href="%s">vào đây</a> để đặt lại mật khẩu!</h1>`, link)
	return m.send(to, "Yêu cầu quên mật khẩu", body)
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.host, m.port, m.sender, m.password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
