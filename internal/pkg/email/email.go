package email

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/mythrivebuddy/thrive_server/config"
)

// Sender 发送 HTML 邮件
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// Service 基于 SMTP 的邮件发送
type Service struct {
	cfg    *config.EmailConfig
	dialer *gomail.Dialer
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
	}
}

// Send 使用统一布局发送邮件
func (s *Service) Send(to, subject, htmlBody string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", Layout(subject, htmlBody))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// SendVerificationCode 发送邮箱验证码
func (s *Service) SendVerificationCode(to, code string) error {
	body := fmt.Sprintf(`<p>Hi,</p>
<p>Use the code below to verify your MyThriveBuddy account:</p>
<div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">%s</div>
<p>The code expires in 24 hours.</p>`, code)

	return s.Send(to, "Verify your email - MyThriveBuddy", body)
}

// Layout 邮件外层模板
func Layout(title, content string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>`)
	b.WriteString(title)
	b.WriteString(`</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
`)
	b.WriteString(content)
	b.WriteString(`
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This message was sent automatically by MyThriveBuddy. Please do not reply.</p>
    </div>
</body>
</html>
`)
	return b.String()
}
