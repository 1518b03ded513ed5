package jwthandling

import (
	"testing"
	"time"
)

func TestProgressHintToken(t *testing.T) {
	const secret = "test-sign-key"

	t.Run("round trip", func(t *testing.T) {
		token, err := GenerateProgressHintToken(time.Hour, "abcd12345678", 3, secret)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		claims, valid, err := ValidateProgressHintToken(token, secret)
		if err != nil || !valid {
			t.Fatalf("token should be valid: %v", err)
		}
		if claims.Subject != "abcd12345678" || claims.CompletedScreen != 3 {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		token, _ := GenerateProgressHintToken(time.Hour, "abcd12345678", 3, secret)
		_, valid, err := ValidateProgressHintToken(token, "other-key")
		if valid || err == nil {
			t.Error("token signed with another key must be rejected")
		}
	})

	t.Run("expired", func(t *testing.T) {
		token, _ := GenerateProgressHintToken(-time.Minute, "abcd12345678", 1, secret)
		_, valid, err := ValidateProgressHintToken(token, secret)
		if valid || err == nil {
			t.Error("expired token must be rejected")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		_, valid, err := ValidateProgressHintToken("not-a-token", secret)
		if valid || err == nil {
			t.Error("garbage must be rejected")
		}
	})
}
