package service

import (
	"fmt"
	"net/smtp"
	"os"

	"github.com/jordan-wright/email"
)

// EmailService sends notification mail through the configured SMTP relay.
type EmailService struct{}

func (s *EmailService) SendSimple(to, subject, text string) error {
	e := email.NewEmail()
	e.From = os.Getenv("SMTP_FROM")
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(text)

	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	auth := smtp.PlainAuth("", os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD"), host)
	return e.Send(fmt.Sprintf("%s:%s", host, port), auth)
}
