// Package notify delivers password reset mail and login codes.
package notify

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
)

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// Mailer sends plain text mail over SMTP with STARTTLS.
type Mailer struct {
	cfg SMTPConfig
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Send(to, subject, body string) error {
	smtpClient, err := smtp.Dial(m.cfg.Host + ":" + m.cfg.Port)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer smtpClient.Close()

	if err = smtpClient.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
		return fmt.Errorf("smtp starttls: %w", err)
	}

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err = smtpClient.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	// Set the sender and recipient first
	if err := smtpClient.Mail(m.cfg.User); err != nil {
		return err
	}
	if err := smtpClient.Rcpt(to); err != nil {
		return err
	}

	wc, err := smtpClient.Data()
	if err != nil {
		return err
	}
	if _, err = fmt.Fprint(wc, FormatMessage(to, subject, body)); err != nil {
		return err
	}
	if err = wc.Close(); err != nil {
		return err
	}
	return smtpClient.Quit()
}

func FormatMessage(to, subject, body string) string {
	return fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s", to, subject, body)
}
