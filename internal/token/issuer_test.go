package token

import (
	"strings"
	"testing"
	"time"

	"github.com/lopsie/portfolio/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:        "user-1",
		Email:     "alice@example.com",
		Name:      "Alice",
		Subdomain: "alice",
		Enabled:   true,
	}
}

func TestIssuer_MintAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	signed, err := issuer.Mint(testUser())
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}
	if signed == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := issuer.Verify(signed)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-1")
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "alice@example.com")
	}
	if claims.Name != "Alice" {
		t.Errorf("Name = %q, want %q", claims.Name, "Alice")
	}
	if claims.Subdomain != "alice" {
		t.Errorf("Subdomain = %q, want %q", claims.Subdomain, "alice")
	}
}

func TestIssuer_Mint_OmitsEmptySubdomain(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	user := testUser()
	user.Subdomain = ""

	signed, err := issuer.Mint(user)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	claims, err := issuer.Verify(signed)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.Subdomain != "" {
		t.Errorf("Subdomain = %q, want empty", claims.Subdomain)
	}
}

func TestIssuer_Verify_RejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	other := NewIssuer("other-secret", time.Hour)

	signed, err := issuer.Mint(testUser())
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	if _, err := other.Verify(signed); err == nil {
		t.Error("expected verification failure with wrong secret")
	}
}

func TestIssuer_Verify_RejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	signed, err := issuer.Mint(testUser())
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	// 検証時刻を現在に戻すと、1時間前に発行されたTTL1分のトークンは期限切れ
	issuer.now = time.Now
	if _, err := issuer.Verify(signed); err == nil {
		t.Error("expected verification failure for expired token")
	}
}

func TestIssuer_Verify_RejectsTamperedToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	signed, err := issuer.Mint(testUser())
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	tampered := signed[:len(signed)-2] + "xx"
	if _, err := issuer.Verify(tampered); err == nil {
		t.Error("expected verification failure for tampered token")
	}
}

func TestIssuer_Verify_RejectsGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.Verify(input); err == nil {
			t.Errorf("Verify(%q) should fail", input)
		}
	}
}

func TestIssuer_Mint_FreshClaimsPerMint(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	user := testUser()
	user.Subdomain = ""
	before, err := issuer.Mint(user)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	// サブドメイン取得後の再発行は新しいクレームを反映する
	user.Subdomain = "alice"
	after, err := issuer.Mint(user)
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	beforeClaims, err := issuer.Verify(before)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	afterClaims, err := issuer.Verify(after)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if beforeClaims.Subdomain != "" {
		t.Errorf("old token Subdomain = %q, want empty", beforeClaims.Subdomain)
	}
	if afterClaims.Subdomain != "alice" {
		t.Errorf("new token Subdomain = %q, want %q", afterClaims.Subdomain, "alice")
	}
}

func TestIssuer_TokenLooksLikeJWT(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	signed, err := issuer.Mint(testUser())
	if err != nil {
		t.Fatalf("Mint returned error: %v", err)
	}

	if parts := strings.Split(signed, "."); len(parts) != 3 {
		t.Errorf("token has %d segments, want 3", len(parts))
	}
}
