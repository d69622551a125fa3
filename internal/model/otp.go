package model

import "time"

// OtpPurpose はOTPの発行目的を表す。
// 登録検証とパスワードリセットは別レコードとして管理し、
// 片方の発行がもう片方を無効化しないようにする。
type OtpPurpose string

const (
	// OtpPurposeRegistration はアカウント登録の検証用OTP。
	OtpPurposeRegistration OtpPurpose = "registration"
	// OtpPurposePasswordReset はパスワードリセット用OTP。
	OtpPurposePasswordReset OtpPurpose = "password_reset"
)

// Otp は発行済みのワンタイムパスワードを表す。
// (Email, Purpose) ごとに最大1件のみ存在し、再発行時は置き換えられる。
type Otp struct {
	Email     string
	Purpose   OtpPurpose
	Code      string // 6桁の数字文字列（左ゼロ埋め）
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired は指定時刻においてOTPが期限切れかどうかを返す。
func (o *Otp) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
