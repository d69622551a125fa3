// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/lopsie/portfolio/internal/model"
)

var (
	// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
	// 事前チェックをすり抜けた同時登録はDBの一意インデックスが最終的に裁定する。
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateSubdomain はサブドメインの一意制約違反を表す。
	ErrDuplicateSubdomain = errors.New("subdomain already taken")
)

// UserRepository はアカウントデータの永続化インターフェース。
type UserRepository interface {
	// Create はアカウントを作成する。
	// メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのアカウントを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindBySubdomain は指定サブドメインの所有アカウントを取得する。見つからない場合はnilを返す。
	FindBySubdomain(ctx context.Context, subdomain string) (*model.User, error)

	// Activate はアカウントを有効化し、使用済みOTPを同一トランザクションで削除する。
	// 有効化のみ・削除のみの部分適用が観測されることはない。
	Activate(ctx context.Context, email string, purpose model.OtpPurpose) error

	// UpdatePassword はパスワードハッシュを置き換え、使用済みOTPを
	// 同一トランザクションで削除する。enabledフラグには影響しない。
	UpdatePassword(ctx context.Context, email, passwordHash string, purpose model.OtpPurpose) error

	// UpdateSubdomain はアカウントのサブドメインを更新する。
	// 他アカウントが既に使用している場合はErrDuplicateSubdomainを返す。
	UpdateSubdomain(ctx context.Context, id, subdomain string) error
}

// OtpRepository はワンタイムパスワードの永続化インターフェース。
// (email, purpose) ごとに最大1件のみ存在する不変条件を維持する。
type OtpRepository interface {
	// Replace はOTPを保存する。同一 (email, purpose) の既存レコードは置き換えられ、
	// 古いコードは以後受理されない。
	Replace(ctx context.Context, otp *model.Otp) error

	// Find は指定 (email, purpose) のOTPを取得する。見つからない場合はnilを返す。
	Find(ctx context.Context, email string, purpose model.OtpPurpose) (*model.Otp, error)

	// Delete は指定 (email, purpose) のOTPを削除する。存在しない場合もエラーにならない。
	Delete(ctx context.Context, email string, purpose model.OtpPurpose) error

	// DeleteExpired は期限切れの全OTPを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
