package utils

import (
	"errors"
	"fmt"
	"net/smtp"
	"os"
)

// SendEmail gửi mail HTML (UTF-8) cho người nộp luận văn khi trạng thái duyệt đổi.
// Host/port lấy từ SMTP_HOST/SMTP_PORT, mặc định Gmail. Trả lỗi nếu chưa cấu hình
// SMTP_EMAIL để caller tự quyết (thường chỉ log).
func SendEmail(to, subject, htmlBody string) error {
	from := os.Getenv("SMTP_EMAIL")
	pass := os.Getenv("SMTP_PASSWORD")
	if from == "" {
		return errors.New("chưa cấu hình SMTP_EMAIL")
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}

	headers := fmt.Sprintf(
		"MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\nFrom: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n",
		from, to, subject,
	)

	auth := smtp.PlainAuth("", from, pass, host)
	if err := smtp.SendMail(host+":"+port, auth, from, []string{to}, []byte(headers+htmlBody)); err != nil {
		return fmt.Errorf("gửi email thất bại: %v", err)
	}
	return nil
}
