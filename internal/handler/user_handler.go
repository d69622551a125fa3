package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lopsie/portfolio/internal/middleware"
	"github.com/lopsie/portfolio/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// GetByID は指定IDのアカウントをDBの最新行から取得する。
	GetByID(ctx context.Context, userID string) (*model.User, error)
	// ClaimSubdomain はサブドメインを検証して取得する。
	ClaimSubdomain(ctx context.Context, userID, subdomain string) (*model.User, error)
}

// UserHandler は認証済みユーザー操作のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	tokens  TokenMinter
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, tokens TokenMinter) *UserHandler {
	return &UserHandler{
		service: service,
		tokens:  tokens,
	}
}

// claimSubdomainRequest はサブドメイン取得リクエストのボディ。
type claimSubdomainRequest struct {
	Subdomain string `json:"subdomain"`
}

// claimSubdomainResponse はサブドメイン取得成功時のAPIレスポンス。
// 新しいクレームを含むトークンを返し、クライアントは即座に差し替える。
type claimSubdomainResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Me は認証済みアカウントの現在の情報を返す。
// GET /api/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	user, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// ClaimSubdomain はサブドメインを取得し、更新後のクレームを含むトークンを発行する。
// PUT /api/user/subdomain
func (h *UserHandler) ClaimSubdomain(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req claimSubdomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	user, err := h.service.ClaimSubdomain(r.Context(), userID, req.Subdomain)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	tokenString, err := h.tokens.Mint(user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claimSubdomainResponse{
		Token: tokenString,
		User:  toUserResponse(user),
	})
}

// writeUnauthorized は認証エラーレスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}
