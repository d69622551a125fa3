package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/lopsie/portfolio/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はアカウントを作成する。
// メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, enabled, subdomain, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Enabled, user.Subdomain,
		user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByEmail は指定メールアドレスのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

// FindBySubdomain は指定サブドメインの所有アカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindBySubdomain(ctx context.Context, subdomain string) (*model.User, error) {
	return r.findOne(ctx, `WHERE subdomain = $1`, subdomain)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, enabled, COALESCE(subdomain, ''), created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Enabled,
		&user.Subdomain, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Activate はアカウントを有効化し、使用済みOTPを同一トランザクションで削除する。
func (r *PostgresUserRepo) Activate(ctx context.Context, email string, purpose model.OtpPurpose) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// アカウントを有効化
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET enabled = true, updated_at = now() WHERE email = $1`,
		email,
	)
	if err != nil {
		return fmt.Errorf("failed to enable user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", email)
	}

	// 使用済みOTPを削除
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM otps WHERE email = $1 AND purpose = $2`,
		email, string(purpose),
	); err != nil {
		return fmt.Errorf("failed to delete used otp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdatePassword はパスワードハッシュを置き換え、使用済みOTPを同一トランザクションで削除する。
func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, email, passwordHash string, purpose model.OtpPurpose) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE email = $1`,
		email, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", email)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM otps WHERE email = $1 AND purpose = $2`,
		email, string(purpose),
	); err != nil {
		return fmt.Errorf("failed to delete used otp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateSubdomain はアカウントのサブドメインを更新する。
// 他アカウントが既に使用している場合はErrDuplicateSubdomainを返す。
func (r *PostgresUserRepo) UpdateSubdomain(ctx context.Context, id, subdomain string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET subdomain = NULLIF($2, ''), updated_at = now() WHERE id = $1`,
		id, subdomain,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateSubdomain
	}
	if err != nil {
		return fmt.Errorf("failed to update subdomain: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// isUniqueViolation はPostgreSQLの一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	pqErr, ok := err.(*pq.Error)
	return ok && string(pqErr.Code) == uniqueViolation
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
