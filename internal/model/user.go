// Package model はドメインモデルを定義する。
package model

import "time"

// User は登録済みアカウントを表す。
// EmailはログインIDとして一意。PasswordHashはbcryptハッシュであり平文は保持しない。
// EnabledはOTP検証成功後にのみtrueになる。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Enabled      bool
	Subdomain    string // 未取得の場合は空文字列（DB上はNULL）
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
