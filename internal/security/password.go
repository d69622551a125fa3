// Package security はパスワードハッシュ等のセキュリティ機能を提供する。
package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はパスワードの一方向ハッシュ化と検証のインターフェース。
// 平文パスワードはハッシュ化以外の用途で保持・記録してはならない。
type PasswordHasher interface {
	// Hash は平文パスワードをソルト付きでハッシュ化する。
	Hash(plaintext string) (string, error)
	// Verify は平文パスワードがハッシュと一致するかを返す。
	Verify(plaintext, hash string) bool
}

// dummyHash はメールアドレス未登録時のタイミング差を埋めるための検証用ハッシュ。
// 実在するアカウントのハッシュではなく、照合は常に失敗する。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// BcryptHasher はbcryptによるPasswordHasher実装。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はデフォルトコストのBcryptHasherを生成する。
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// Hash は平文パスワードをbcryptでハッシュ化する。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードがハッシュと一致するかを返す。
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyDummy はダミーハッシュに対して照合を実行し、常にfalseを返す。
// アカウントが存在しない場合でも照合コストを揃え、
// レスポンス時間からメールアドレスの登録有無が推測できないようにする。
func (h *BcryptHasher) VerifyDummy(plaintext string) bool {
	return h.Verify(plaintext, dummyHash)
}

// compile-time interface check
var _ PasswordHasher = (*BcryptHasher)(nil)
