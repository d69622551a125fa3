// Package otp はワンタイムパスワードの発行・検証のドメインロジックを提供する。
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/lopsie/portfolio/internal/mailer"
	"github.com/lopsie/portfolio/internal/model"
	"github.com/lopsie/portfolio/internal/repository"
)

// DefaultTTL はOTPの有効期間のデフォルト値。
const DefaultTTL = 5 * time.Minute

// codeSpace は6桁コードの値域（000000〜999999）。
var codeSpace = big.NewInt(1_000_000)

// ServiceConfig はOTPサービスの設定。
type ServiceConfig struct {
	TTL time.Duration // OTPの有効期間
}

// Service はOTPの発行・検証に関するビジネスロジックを提供する。
// (email, purpose) ごとに最大1件のOTPのみが有効であり、再発行は既存コードを無効化する。
type Service struct {
	otpRepo  repository.OtpRepository
	userRepo repository.UserRepository
	notifier mailer.Notifier
	config   ServiceConfig
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	otpRepo repository.OtpRepository,
	userRepo repository.UserRepository,
	notifier mailer.Notifier,
	config ServiceConfig,
) *Service {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	return &Service{
		otpRepo:  otpRepo,
		userRepo: userRepo,
		notifier: notifier,
		config:   config,
		now:      time.Now,
	}
}

// Issue は新しい6桁コードを生成して永続化し、メールで送信する。
// 同一 (email, purpose) の既存コードは置き換えられ、以後受理されない。
// メール送信の失敗はそのまま返す。コード自体は永続化済みのため、
// 呼び出し元は再送信をリクエストできる。
func (s *Service) Issue(ctx context.Context, email, name string, purpose model.OtpPurpose) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate otp code: %w", err)
	}

	now := s.now()
	record := &model.Otp{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(s.config.TTL),
		CreatedAt: now,
	}

	if err := s.otpRepo.Replace(ctx, record); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.notifier.SendCode(email, name, code, purpose); err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}

	slog.Info("otp issued",
		slog.String("purpose", string(purpose)),
	)

	return nil
}

// VerifyAndActivate は登録用コードを検証し、一致すればアカウントを有効化する。
// 有効化と使用済みOTPの削除は同一トランザクションで行われる。
// アカウントが既に有効な場合は、コードの一致を要求せず成功を返す
// （クライアントの二重送信を吸収するための緩和であり、仕様として維持する）。
// コード不一致・期限切れ・レコードなしはいずれもfalseを返し、理由は区別しない。
func (s *Service) VerifyAndActivate(ctx context.Context, email, code string) (bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return false, nil
	}
	if user.Enabled {
		return true, nil
	}

	ok, err := s.Check(ctx, email, model.OtpPurposeRegistration, code)
	if err != nil || !ok {
		return false, err
	}

	if err := s.userRepo.Activate(ctx, email, model.OtpPurposeRegistration); err != nil {
		return false, fmt.Errorf("failed to activate user: %w", err)
	}

	slog.Info("account activated",
		slog.String("user_id", user.ID),
	)

	return true, nil
}

// Check はコードを照合する。有効化などの副作用は持たない。
// 期限切れのレコードは削除してfalseを返す（期限切れ後の再試行も単回使用を守る）。
// 一致した場合もレコードは削除しない。消費は呼び出し元の
// トランザクション（有効化・パスワード更新）に委ねる。
func (s *Service) Check(ctx context.Context, email string, purpose model.OtpPurpose, code string) (bool, error) {
	record, err := s.otpRepo.Find(ctx, email, purpose)
	if err != nil {
		return false, fmt.Errorf("failed to find otp: %w", err)
	}
	if record == nil {
		return false, nil
	}

	if record.Expired(s.now()) {
		if err := s.otpRepo.Delete(ctx, email, purpose); err != nil {
			return false, fmt.Errorf("failed to delete expired otp: %w", err)
		}
		return false, nil
	}

	if record.Code != code {
		return false, nil
	}

	return true, nil
}

// generateCode は暗号的に安全な乱数源から一様な6桁コードを生成する。
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
