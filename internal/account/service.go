// Package account はアカウントの登録・認証・パスワードリセット・
// サブドメイン取得のドメインロジックを提供する。
package account

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/lopsie/portfolio/internal/model"
	"github.com/lopsie/portfolio/internal/repository"
	"github.com/lopsie/portfolio/internal/security"
)

// subdomainPattern はサブドメインに許可する文字種（英小文字・数字・ハイフン）。
var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// OtpIssuer はOTPの発行・照合インターフェース。
// otp.Serviceの部分集合として定義する。
type OtpIssuer interface {
	// Issue は新しいOTPを発行してメール送信する。
	Issue(ctx context.Context, email, name string, purpose model.OtpPurpose) error
	// Check はコードを照合する。レコードの消費は呼び出し元に委ねる。
	Check(ctx context.Context, email string, purpose model.OtpPurpose, code string) (bool, error)
}

// DummyVerifier はタイミング差を埋めるためのダミー照合インターフェース。
type DummyVerifier interface {
	VerifyDummy(plaintext string) bool
}

// Service はアカウントのライフサイクルに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	otp      OtpIssuer
	hasher   security.PasswordHasher
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	otp OtpIssuer,
	hasher security.PasswordHasher,
) *Service {
	return &Service{
		userRepo: userRepo,
		otp:      otp,
		hasher:   hasher,
	}
}

// Register は新規アカウントを無効状態で作成し、登録検証用OTPを発行する。
// 事前の存在チェックは最適化であり、同時登録の裁定はDBの一意インデックスに委ねる。
// OTPのメール送信に失敗した場合、アカウント自体は作成済みのため
// 呼び出し元は再送信をリクエストできる。
func (s *Service) Register(ctx context.Context, name, email, plaintextPassword string) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	passwordHash, err := s.hasher.Hash(plaintextPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Enabled:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateEmail {
			// 事前チェック後に同時登録が先にコミットした場合
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
	)

	if err := s.otp.Issue(ctx, email, name, model.OtpPurposeRegistration); err != nil {
		slog.Error("failed to issue registration otp",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewDependencyFailureError()
	}

	return user, nil
}

// Authenticate はメールアドレスとパスワードを検証する。
// 未登録メールアドレスとパスワード不一致は同一のエラーを返し、
// ダミー照合により応答時間からも区別できないようにする。
// パスワードが正しくてもアカウントが未検証の場合はNotVerifiedを返す。
func (s *Service) Authenticate(ctx context.Context, email, plaintextPassword string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		if dv, ok := s.hasher.(DummyVerifier); ok {
			dv.VerifyDummy(plaintextPassword)
		}
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(plaintextPassword, user.PasswordHash) {
		return nil, model.NewInvalidCredentialsError()
	}

	if !user.Enabled {
		return nil, model.NewNotVerifiedError()
	}

	return user, nil
}

// ResendRegistrationOtp は登録検証用OTPを再発行する。
// 未登録または既に有効化済みのアカウントに対しては何もせず成功を返し、
// メールアドレスの登録有無を漏らさない。
func (s *Service) ResendRegistrationOtp(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.Enabled {
		return nil
	}

	if err := s.otp.Issue(ctx, email, user.Name, model.OtpPurposeRegistration); err != nil {
		slog.Error("failed to reissue registration otp",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return model.NewDependencyFailureError()
	}

	return nil
}

// InitiatePasswordReset はパスワードリセット用OTPを発行する。
// 未登録メールアドレスに対しては何もせず成功を返し、登録有無を漏らさない。
func (s *Service) InitiatePasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil
	}

	if err := s.otp.Issue(ctx, email, user.Name, model.OtpPurposePasswordReset); err != nil {
		slog.Error("failed to issue password reset otp",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return model.NewDependencyFailureError()
	}

	return nil
}

// ResetPassword はリセット用コードを検証し、一致すればパスワードハッシュを置き換える。
// ハッシュの置き換えと使用済みOTPの削除は同一トランザクションで行われる。
// アカウントの有効化には影響しない（検証とリセットは独立した関心事）。
// コード不一致・期限切れ・レコードなしはいずれもfalseを返し、理由は区別しない。
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) (bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return false, nil
	}

	ok, err := s.otp.Check(ctx, email, model.OtpPurposePasswordReset, code)
	if err != nil {
		return false, fmt.Errorf("failed to check otp: %w", err)
	}
	if !ok {
		return false, nil
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, email, passwordHash, model.OtpPurposePasswordReset); err != nil {
		return false, fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset completed",
		slog.String("user_id", user.ID),
	)

	return true, nil
}

// ClaimSubdomain はサブドメインを検証して取得する。
// 自分が既に所有しているサブドメインの再取得は何もせず成功を返す（冪等）。
// 他アカウントが所有している場合はSubdomainTakenを返す。
// 同時取得の裁定はDBの一意インデックスに委ねる。
func (s *Service) ClaimSubdomain(ctx context.Context, userID, subdomain string) (*model.User, error) {
	if subdomain == "" {
		return nil, model.NewInvalidSubdomainError("サブドメインが空です")
	}
	if !subdomainPattern.MatchString(subdomain) {
		return nil, model.NewInvalidSubdomainError(subdomain)
	}

	owner, err := s.userRepo.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, fmt.Errorf("failed to find subdomain owner: %w", err)
	}
	if owner != nil {
		if owner.ID == userID {
			return owner, nil
		}
		return nil, model.NewSubdomainTakenError(subdomain)
	}

	if err := s.userRepo.UpdateSubdomain(ctx, userID, subdomain); err != nil {
		if err == repository.ErrDuplicateSubdomain {
			// 事前チェック後に同時取得が先にコミットした場合
			return nil, model.NewSubdomainTakenError(subdomain)
		}
		return nil, fmt.Errorf("failed to update subdomain: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("subdomain claimed",
		slog.String("user_id", userID),
		slog.String("subdomain", subdomain),
	)

	return user, nil
}

// GetByID は指定IDのアカウントを取得する。トークンクレームの組み立て元として
// 常にDBの最新行を返す。
func (s *Service) GetByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
