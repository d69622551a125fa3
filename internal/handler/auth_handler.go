// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lopsie/portfolio/internal/metrics"
	"github.com/lopsie/portfolio/internal/model"
)

// AccountServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// Register は新規アカウントを無効状態で作成し、検証コードをメール送信する。
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	// Authenticate はメールアドレスとパスワードを検証する。
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	// ResendRegistrationOtp は登録検証コードを再発行する。
	ResendRegistrationOtp(ctx context.Context, email string) error
	// InitiatePasswordReset はパスワードリセットコードを発行する。
	InitiatePasswordReset(ctx context.Context, email string) error
	// ResetPassword はコードを検証してパスワードを置き換える。
	ResetPassword(ctx context.Context, email, code, newPassword string) (bool, error)
}

// OtpVerifier は登録検証コードの照合・有効化インターフェース。
// otp.Serviceの部分集合として定義する。
type OtpVerifier interface {
	VerifyAndActivate(ctx context.Context, email, code string) (bool, error)
}

// TokenMinter はログイン成功時のトークン発行インターフェース。
// token.Issuerの部分集合として定義する。
type TokenMinter interface {
	Mint(user *model.User) (string, error)
}

// AuthHandler はアカウント登録・検証・ログインのHTTPハンドラー。
type AuthHandler struct {
	account AccountServiceInterface
	otp     OtpVerifier
	tokens  TokenMinter
	metrics metrics.LifecycleRecorder
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilでもよい。
func NewAuthHandler(account AccountServiceInterface, otp OtpVerifier, tokens TokenMinter, m metrics.LifecycleRecorder) *AuthHandler {
	return &AuthHandler{
		account: account,
		otp:     otp,
		tokens:  tokens,
		metrics: m,
	}
}

// registerRequest はアカウント登録リクエストのボディ。
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// verifyRequest は検証コード送信リクエストのボディ。
type verifyRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// emailRequest はメールアドレスのみを受け取るリクエストのボディ。
// コード再送信とパスワードリセット開始で共用する。
type emailRequest struct {
	Email string `json:"email"`
}

// resetPasswordRequest はパスワードリセット実行リクエストのボディ。
type resetPasswordRequest struct {
	Email       string `json:"email"`
	Otp         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// userResponse はアカウント情報のAPIレスポンス。
type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain,omitempty"`
}

// loginResponse はログイン成功時のAPIレスポンス。
type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Register はアカウント登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "名前、メールアドレス、パスワードは必須です。",
			Category: "validation",
			Action:   "すべての項目を入力してください。",
		})
		return
	}

	user, err := h.account.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRegistration()
		h.metrics.RecordOtpIssued(string(model.OtpPurposeRegistration))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// Verify は登録検証コードを照合し、一致すればアカウントを有効化する。
// POST /api/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	ok, err := h.otp.VerifyAndActivate(r.Context(), req.Email, req.Otp)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordOtpVerification(ok)
	}

	if !ok {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidOtpError())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Login はメールアドレスとパスワードを検証し、署名付きトークンを発行する。
// 未検証アカウントはACCOUNT_NOT_VERIFIEDコードで区別され、
// クライアントは検証画面へ誘導できる。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	user, err := h.account.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordLoginError(err)
		handleServiceError(w, err)
		return
	}

	tokenString, err := h.tokens.Mint(user)
	if err != nil {
		slog.Error("failed to mint token", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLogin("success")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		Token: tokenString,
		User:  toUserResponse(user),
	})
}

// ResendOtp は登録検証コードを再送信する。
// 登録有無を漏らさないため、未登録メールアドレスでも204を返す。
// POST /api/auth/resend-otp
func (h *AuthHandler) ResendOtp(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.account.ResendRegistrationOtp(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword はパスワードリセットコードを発行する。
// 登録有無を漏らさないため、未登録メールアドレスでも204を返す。
// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.account.InitiatePasswordReset(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword はリセットコードを検証し、パスワードを置き換える。
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.NewPassword == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "新しいパスワードが空です。",
			Category: "validation",
			Action:   "新しいパスワードを入力してください。",
		})
		return
	}

	ok, err := h.account.ResetPassword(r.Context(), req.Email, req.Otp, req.NewPassword)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if !ok {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidOtpError())
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPasswordReset()
	}

	w.WriteHeader(http.StatusNoContent)
}

// recordLoginError は認証エラーをメトリクスに記録する。
func (h *AuthHandler) recordLoginError(err error) {
	if h.metrics == nil {
		return
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return
	}
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials:
		h.metrics.RecordLogin("invalid_credentials")
	case model.ErrCodeNotVerified:
		h.metrics.RecordLogin("not_verified")
	}
}

// --- ヘルパー関数 ---

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Subdomain: user.Subdomain,
	}
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeInvalidRequestBody はリクエストボディ解析失敗のレスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeDuplicateEmail, model.ErrCodeSubdomainTaken:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeNotVerified:
		return http.StatusForbidden
	case model.ErrCodeInvalidSubdomain, model.ErrCodeInvalidOtp:
		return http.StatusBadRequest
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
