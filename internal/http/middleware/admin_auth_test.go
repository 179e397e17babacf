package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/tenancy"
)

func TestAdminJWTMissingSecret(t *testing.T) {
	mw := AdminJWT("")
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTMissingHeader(t *testing.T) {
	mw := AdminJWT("secret")
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTInvalidToken(t *testing.T) {
	mw := AdminJWT("secret")
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signedAdminToken(t, "wrong"))
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTExpiredToken(t *testing.T) {
	signed, err := SignAdminToken("secret", "admin-user", "", time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	AdminJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run for expired token")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	mw := AdminJWT("secret")
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+signedAdminToken(t, "secret"))
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected admin claims in context")
		}
		if claims.Email != "owner@clinica.cl" {
			t.Fatalf("expected email claim, got %q", claims.Email)
		}
		if userID, _ := tenancy.UserIDFromContext(r.Context()); userID != "admin-user" {
			t.Fatalf("expected user id admin-user, got %q", userID)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestSignAdminTokenRequiresSecret(t *testing.T) {
	if _, err := SignAdminToken("", "u", "", time.Minute, time.Now()); err == nil {
		t.Fatalf("expected error without secret")
	}
}

type stubProfiles struct {
	clinicID string
	err      error
}

func (s stubProfiles) ClinicIDForUser(ctx context.Context, userID string) (string, error) {
	return s.clinicID, s.err
}

func TestClinicScope(t *testing.T) {
	cases := []struct {
		name     string
		userID   string
		profiles stubProfiles
		want     int
	}{
		{name: "no session", profiles: stubProfiles{clinicID: "c1"}, want: http.StatusUnauthorized},
		{name: "no profile", userID: "u1", profiles: stubProfiles{err: fmt.Errorf("admin: %w", apierr.ErrNotFound)}, want: http.StatusForbidden},
		{name: "lookup failure", userID: "u1", profiles: stubProfiles{err: errors.New("db down")}, want: http.StatusBadGateway},
		{name: "scoped", userID: "u1", profiles: stubProfiles{clinicID: "c1"}, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/patients", nil)
			if tc.userID != "" {
				req = req.WithContext(tenancy.WithUserID(req.Context(), tc.userID))
			}
			rec := httptest.NewRecorder()
			ClinicScope(tc.profiles, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
				if !ok || clinicID != "c1" {
					t.Fatalf("expected clinic c1 in context, got %q", clinicID)
				}
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func signedAdminToken(t *testing.T, secret string) string {
	t.Helper()
	claims := AdminClaims{
		Email: "owner@clinica.cl",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
