package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/bountyhive/BountyHive/internal/pkg/env"
)

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendPayoutNotification tells a creator their escrow payout was dispatched.
func SendPayoutNotification(to string, amountCents int64, currency string) error {
	subject := "Your payout is on the way"
	body := fmt.Sprintf(
		"<p>Good news! Your payout of <strong>%d.%02d %s</strong> has been released and sent to your payout account.</p>",
		amountCents/100, amountCents%100, currency,
	)
	return SendMail(to, subject, body)
}

// SendRefundNotification tells a business their escrow was refunded.
func SendRefundNotification(to string, amountCents int64, currency, reason string) error {
	subject := "Your escrow payment was refunded"
	body := fmt.Sprintf(
		"<p>Your escrow payment of <strong>%d.%02d %s</strong> has been refunded.</p><p>Reason: %s</p>",
		amountCents/100, amountCents%100, currency, reason,
	)
	return SendMail(to, subject, body)
}
