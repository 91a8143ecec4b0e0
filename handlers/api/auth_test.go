package api

import (
	"testing"
	"time"
)

func TestTokenRoundtrip(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := ValidateToken(token, "secret"); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := ValidateToken(token, "other"); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if err := ValidateToken(token, "secret"); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestTokenGarbage(t *testing.T) {
	if err := ValidateToken("not-a-token", "secret"); err == nil {
		t.Error("malformed token must be rejected")
	}
}
