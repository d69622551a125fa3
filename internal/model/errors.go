package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNotVerified        = "ACCOUNT_NOT_VERIFIED"
	ErrCodeInvalidSubdomain   = "INVALID_SUBDOMAIN"
	ErrCodeSubdomainTaken     = "SUBDOMAIN_TAKEN"
	ErrCodeInvalidOtp         = "INVALID_OTP"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDependencyFailure  = "DEPENDENCY_FAILURE"
)

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログインするか、パスワードリセットをお試しください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレス未登録とパスワード不一致は呼び出し側から区別できない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewNotVerifiedError は未検証アカウントエラーを生成する。
// 登録フロー直後のユーザーに提示するため、存在を明かしても問題ない。
func NewNotVerifiedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotVerified,
		Message:  "アカウントがまだ検証されていません。",
		Category: "auth",
		Action:   "メールに届いた検証コードを入力してください。",
	}
}

// NewInvalidSubdomainError は無効なサブドメインエラーを生成する。
func NewInvalidSubdomainError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSubdomain,
		Message:  fmt.Sprintf("無効なサブドメインです: %s", reason),
		Category: "validation",
		Action:   "サブドメインには英小文字、数字、ハイフンのみ使用できます。",
	}
}

// NewSubdomainTakenError はサブドメイン重複エラーを生成する。
func NewSubdomainTakenError(subdomain string) *APIError {
	return &APIError{
		Code:     ErrCodeSubdomainTaken,
		Message:  fmt.Sprintf("サブドメインは既に使用されています: %s", subdomain),
		Category: "validation",
		Action:   "別のサブドメインを指定してください。",
	}
}

// NewInvalidOtpError は無効または期限切れの検証コードエラーを生成する。
// コード不一致と期限切れは呼び出し側から区別できない。
func NewInvalidOtpError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidOtp,
		Message:  "検証コードが無効か、有効期限が切れています。",
		Category: "auth",
		Action:   "コードの再送信をリクエストしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewDependencyFailureError は外部依存（メール送信・DB等）の失敗エラーを生成する。
func NewDependencyFailureError() *APIError {
	return &APIError{
		Code:     ErrCodeDependencyFailure,
		Message:  "一時的なエラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
