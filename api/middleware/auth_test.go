package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/aydindemir/driftops-backend/pkg/auth"
	"github.com/aydindemir/driftops-backend/pkg/config"
	"github.com/aydindemir/driftops-backend/pkg/enums"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "driftops-test",
	ExpirationMinutes: 60,
}

func mintToken(t *testing.T, role enums.MemberRole) string {
	t.Helper()

	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return token
}

func TestAuthSeedsContext(t *testing.T) {
	var gotUser, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.MemberRoleAdmin))
	w := httptest.NewRecorder()

	Auth(testJWTConfig, nil)(next).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if gotUser == "" {
		t.Fatalf("user id missing from context")
	}
	if gotRole != string(enums.MemberRoleAdmin) {
		t.Fatalf("unexpected role %q", gotRole)
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	Auth(testJWTConfig, nil)(next).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 but got %d", w.Code)
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()

	Auth(testJWTConfig, nil)(next).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 but got %d", w.Code)
	}
}

func TestRequireDeleteRole(t *testing.T) {
	cases := []struct {
		role   enums.MemberRole
		status int
	}{
		{enums.MemberRoleAdmin, http.StatusOK},
		{enums.MemberRoleManager, http.StatusOK},
		{enums.MemberRoleOwner, http.StatusOK},
		{enums.MemberRoleInstructor, http.StatusForbidden},
		{enums.MemberRoleStudent, http.StatusForbidden},
	}

	for _, tc := range cases {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		req = req.WithContext(WithRole(req.Context(), string(tc.role)))
		w := httptest.NewRecorder()

		RequireDeleteRole(nil)(next).ServeHTTP(w, req)

		if w.Code != tc.status {
			t.Fatalf("role %s: expected %d but got %d", tc.role, tc.status, w.Code)
		}
	}
}
