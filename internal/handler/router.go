package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lopsie/portfolio/internal/metrics"
	"github.com/lopsie/portfolio/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なDB疎通確認インターフェース。
// *sql.DB を受け付けることができる。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	AccountService AccountServiceInterface
	OtpVerifier    OtpVerifier
	TokenMinter    TokenMinter
	UserService    UserServiceInterface

	// ヘルスチェック
	DB HealthChecker

	// ロギング
	Logger *slog.Logger

	// メトリクス（nil可）
	Metrics metrics.LifecycleRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → RequestLogging
//	認証エンドポイント: + RateLimit(AuthEndpoint, IP単位)
//	認証済みルート: + AuthToken → RateLimit(General, ユーザー単位)
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))

	authHandler := NewAuthHandler(deps.AccountService, deps.OtpVerifier, deps.TokenMinter, deps.Metrics)
	userHandler := NewUserHandler(deps.UserService, deps.TokenMinter)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", NewHealthHandler(deps.DB))

	// 認証エンドポイント（IP単位のレート制限で総当たりを抑止）
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.AuthEndpointMiddleware())
		}

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/verify", authHandler.Verify)
			r.Post("/login", authHandler.Login)
			r.Post("/resend-otp", authHandler.ResendOtp)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: AuthToken → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthTokenMiddleware(deps.TokenVerifier))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Route("/api/user", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Put("/subdomain", userHandler.ClaimSubdomain)
		})
	})

	return r
}

// NewHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func NewHealthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}
