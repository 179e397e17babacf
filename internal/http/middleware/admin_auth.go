package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
	"github.com/wolfman30/clinic-growth-platform/internal/tenancy"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// AdminClaims is the payload of an admin session token. Subject carries the
// user id.
type AdminClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SignAdminToken issues an HS256 token for userID valid for ttl.
func SignAdminToken(secret, userID, email string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("middleware: admin jwt secret not configured")
	}
	claims := AdminClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("middleware: sign admin token: %w", err)
	}
	return signed, nil
}

// AdminJWT enforces an HMAC-signed JWT for admin endpoints and stores the
// caller's user id in the request context.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				apierr.Write(w, nil, apierr.Unauthorized("admin auth disabled"))
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				apierr.Write(w, nil, apierr.Unauthorized("missing authorization header"))
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := AdminClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				apierr.Write(w, nil, apierr.Unauthorized("invalid token"))
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			ctx = tenancy.WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(AdminClaims)
	return claims, ok
}

// ProfileLookup resolves the clinic an admin user belongs to. Implementations
// return an error wrapping apierr.ErrNotFound when the user has no profile.
type ProfileLookup interface {
	ClinicIDForUser(ctx context.Context, userID string) (string, error)
}

// ClinicScope must run after AdminJWT. It resolves profiles.clinic_id for the
// authenticated user and scopes the request to that clinic.
func ClinicScope(profiles ProfileLookup, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := tenancy.UserIDFromContext(r.Context())
			if !ok {
				apierr.Write(w, logger, apierr.Unauthorized("missing admin session"))
				return
			}
			clinicID, err := profiles.ClinicIDForUser(r.Context(), userID)
			switch {
			case errors.Is(err, apierr.ErrNotFound):
				apierr.Write(w, logger, apierr.Forbidden("user is not assigned to a clinic"))
				return
			case err != nil:
				apierr.Write(w, logger, apierr.Upstream("profile lookup failed", err))
				return
			case clinicID == "":
				apierr.Write(w, logger, apierr.Forbidden("user is not assigned to a clinic"))
				return
			}
			ctx := tenancy.WithClinicID(r.Context(), clinicID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
