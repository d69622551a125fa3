// Package token はログイン済みアカウントに対する署名付きトークンの発行と検証を提供する。
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lopsie/portfolio/internal/model"
)

// Claims はトークンに埋め込むアカウント属性を表す。
// サブドメイン変更を即座に反映するため、発行のたびにDBの最新行から組み立てる。
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain,omitempty"`
}

// Issuer はHMAC-SHA256署名のJWTを発行・検証する。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer はIssuerを生成する。
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Mint はアカウントの現在の属性からトークンを発行する。
// 属性はキャッシュせず、呼び出し時点のuser行の値をそのまま使用する。
func (i *Issuer) Mint(user *model.User) (string, error) {
	issuedAt := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
		Email:     user.Email,
		Name:      user.Name,
		Subdomain: user.Subdomain,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、クレームを返す。
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject claim")
	}
	return claims, nil
}
