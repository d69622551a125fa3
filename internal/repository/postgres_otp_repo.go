package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lopsie/portfolio/internal/model"
)

// PostgresOtpRepo はPostgreSQLを使用したOTPリポジトリ。
type PostgresOtpRepo struct {
	db *sql.DB
}

// NewPostgresOtpRepo はPostgresOtpRepoを生成する。
func NewPostgresOtpRepo(db *sql.DB) *PostgresOtpRepo {
	return &PostgresOtpRepo{db: db}
}

// Replace はOTPを保存する。同一 (email, purpose) の既存レコードは
// UPSERTにより原子的に置き換えられ、古いコードは以後受理されない。
func (r *PostgresOtpRepo) Replace(ctx context.Context, otp *model.Otp) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otps (email, purpose, code, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email, purpose)
		 DO UPDATE SET code = EXCLUDED.code,
		               expires_at = EXCLUDED.expires_at,
		               created_at = EXCLUDED.created_at`,
		otp.Email, string(otp.Purpose), otp.Code, otp.ExpiresAt, otp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to replace otp: %w", err)
	}
	return nil
}

// Find は指定 (email, purpose) のOTPを取得する。見つからない場合はnilを返す。
func (r *PostgresOtpRepo) Find(ctx context.Context, email string, purpose model.OtpPurpose) (*model.Otp, error) {
	otp := &model.Otp{}
	var rawPurpose string
	err := r.db.QueryRowContext(ctx,
		`SELECT email, purpose, code, expires_at, created_at
		 FROM otps
		 WHERE email = $1 AND purpose = $2`,
		email, string(purpose),
	).Scan(&otp.Email, &rawPurpose, &otp.Code, &otp.ExpiresAt, &otp.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find otp: %w", err)
	}

	otp.Purpose = model.OtpPurpose(rawPurpose)
	return otp, nil
}

// Delete は指定 (email, purpose) のOTPを削除する。存在しない場合もエラーにならない。
func (r *PostgresOtpRepo) Delete(ctx context.Context, email string, purpose model.OtpPurpose) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otps WHERE email = $1 AND purpose = $2`,
		email, string(purpose),
	)
	if err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れの全OTPを削除し、削除件数を返す。
func (r *PostgresOtpRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM otps WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otps: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ OtpRepository = (*PostgresOtpRepo)(nil)
