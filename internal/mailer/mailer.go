// Package mailer は検証コードのメール送信を提供する。
package mailer

import (
	"fmt"

	"github.com/lopsie/portfolio/internal/model"
	"gopkg.in/gomail.v2"
)

// Notifier は検証コードの通知インターフェース。
// 発行1回につき送信はちょうど1回。失敗は呼び出し元にそのまま返し、内部では再試行しない。
type Notifier interface {
	SendCode(toEmail, name, code string, purpose model.OtpPurpose) error
}

// SMTPConfig はSMTP接続の設定。
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer はSMTP経由で検証コードを送信するNotifier実装。
type SMTPMailer struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
	}
}

// SendCode は目的に応じた件名と本文で検証コードを送信する。
func (m *SMTPMailer) SendCode(toEmail, name, code string, purpose model.OtpPurpose) error {
	var subject, body string
	switch purpose {
	case model.OtpPurposePasswordReset:
		subject = "パスワードリセットの検証コード"
		body = fmt.Sprintf("%s様\n\nパスワードリセットの検証コードは %s です。\nこのコードは5分間有効です。\n\n心当たりがない場合はこのメールを無視してください。", name, code)
	default:
		subject = "アカウント登録の検証コード"
		body = fmt.Sprintf("%s様\n\nアカウント登録の検証コードは %s です。\nこのコードは5分間有効です。", name, code)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	return nil
}

// compile-time interface check
var _ Notifier = (*SMTPMailer)(nil)
