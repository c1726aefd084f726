package auth

import (
	"testing"
	"time"

	"github.com/aydindemir/driftops-backend/pkg/config"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/google/uuid"
)

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "driftops-test",
	ExpirationMinutes: 15,
}

func TestMintAndParseRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{
		UserID: userID,
		Role:   enums.MemberRoleManager,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: %s", claims.UserID)
	}
	if claims.Role != enums.MemberRoleManager {
		t.Fatalf("role mismatch: %s", claims.Role)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.MemberRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := testJWT
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.MemberRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.MemberRole("pirate"),
	})
	if err == nil {
		t.Fatal("expected invalid role to be rejected")
	}
}
