// Package service contains background jobs and outbound integrations
package service

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer is the outbound email capability. Handlers only ever see
// this interface so tests can swap in a stub
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct{}

func NewSMTPMailer() *SMTPMailer {
	return &SMTPMailer{}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	from := viper.GetString("mail.sender")
	if to == from {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(
		viper.GetString("mail.host"),
		viper.GetInt("mail.port"),
		from,
		viper.GetString("mail.password"),
	)

	return d.DialAndSend(msg)
}

func baseURL() string {
	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	return fmt.Sprintf("%v://%v", scheme, viper.GetString("host.domain"))
}

// BuildConfirmationMail renders the email sent right after
// registration. The link carries the signed confirmation token
func BuildConfirmationMail(token string) (subject, body string) {
	link := fmt.Sprintf("%v/confirm?token=%v", baseURL(), token)

	subject = "Confirm your email address"
	body = fmt.Sprintf("Click <a href='%v'>here</a> to confirm your account.<br><br>This link will expire in %v minutes",
		link, viper.GetInt("registration.confirm_token_ttl_minutes"))

	return subject, body
}

func BuildPasswordResetMail(token string) (subject, body string) {
	link := fmt.Sprintf("%v/reset-password?token=%v", baseURL(), token)

	subject = "Password recovery"
	body = fmt.Sprintf("Click <a href='%v'>here</a> to reset your password.<br><br>This link will expire in %v minutes",
		link, viper.GetInt("registration.reset_token_ttl_minutes"))

	return subject, body
}

func BuildTestMail() (subject, body string) {
	return "Test email", "If you can read this the SMTP configuration works"
}
