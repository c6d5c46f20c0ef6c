// Package mailer gửi email qua SMTP. Core chỉ bàn giao payload đã resolve:
// chọn template và format chi tiết là việc của package này, gửi thất bại
// không bao giờ làm hỏng thao tác nghiệp vụ gọi nó.
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"vendor_compliance/config"
	"vendor_compliance/internal/global"
	"vendor_compliance/internal/logger"
)

// Event là một sự kiện nghiệp vụ đã resolve đầy đủ để gửi email
type Event struct {
	To      string // Địa chỉ người nhận
	Subject string
	Title   string
	Body    string // Nội dung chính, text thuần
	Action  string // URL hành động, rỗng nếu không có
}

// Mailer gửi email theo cấu hình SMTP của server
type Mailer struct {
	cfg *config.Configuration
}

// NewMailer tạo mới Mailer từ cấu hình toàn cục
func NewMailer() *Mailer {
	return &Mailer{cfg: global.ServerConfig}
}

// Enabled cho biết SMTP đã được cấu hình hay chưa
func (m *Mailer) Enabled() bool {
	return m.cfg != nil && m.cfg.SMTPHost != ""
}

// Send render và gửi một event. Trả lỗi cho caller quyết định log;
// caller không được propagate lỗi này lên thao tác nghiệp vụ.
func (m *Mailer) Send(event Event) error {
	if !m.Enabled() {
		return nil
	}

	htmlContent := fmt.Sprintf(
		`<h2 style="color:#333;">%s</h2><p style="color:#555;line-height:1.6;">%s</p>`,
		event.Title, event.Body)
	if event.Action != "" {
		htmlContent += fmt.Sprintf(
			`<div style="margin-top:20px;"><a href="%s" style="display:inline-block;padding:10px 20px;text-decoration:none;border-radius:5px;background-color:#007bff;color:#fff;">Xem chi tiết</a></div>`,
			event.Action)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTPFrom)
	msg.SetHeader("To", event.To)
	msg.SetHeader("Subject", event.Subject)
	msg.SetBody("text/html", htmlContent)

	dialer := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUsername, m.cfg.SMTPPassword)
	return dialer.DialAndSend(msg)
}

// SendAsync gửi email trong goroutine riêng, lỗi chỉ log
func (m *Mailer) SendAsync(event Event) {
	if !m.Enabled() {
		return
	}
	go func() {
		if err := m.Send(event); err != nil {
			logger.GetErrorLogger().WithError(err).WithField("to", event.To).Error("Không thể gửi email")
		}
	}()
}
