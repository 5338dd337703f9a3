// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

const (
	IdentityKey contextKey = "identity"

	DefaultTokenHeader = "X-Auth-Token"

	RoleAdmin = "admin"
)

// Identity is the claim set carried by a verified token.
type Identity struct {
	UserID    string
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*Identity, error)
}

// RoleLookup reads the role currently stored for a user. Admin checks use
// it instead of the role claim, which may be stale.
type RoleLookup interface {
	GetRole(ctx context.Context, userID string) (string, error)
}

func Authenticator(
	verifier TokenVerifier,
	header string,
) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultTokenHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(header))
			if token == "" {
				core.JSONError(w, core.TokenMissingError())
				return
			}

			identity, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				slog.DebugContext(r.Context(), "token rejected",
					"reason", authFailureReason(err),
					"request_id", GetRequestID(r.Context()),
				)
				core.JSONError(w, core.TokenInvalidError())
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAdmin(roles RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			role, err := roles.GetRole(r.Context(), userID)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.Forbidden(w, "access denied: admins only")
					return
				}
				core.InternalServerError(w, err)
				return
			}

			if role != RoleAdmin {
				core.Forbidden(w, "access denied: admins only")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, core.ErrTokenExpired):
		return "expired"
	case errors.Is(err, core.ErrTokenRevoked):
		return "revoked"
	default:
		return "invalid"
	}
}

func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return identity
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.UserID
	}
	return ""
}

// WithIdentity is used by tests and internal callers that already hold a
// verified identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}
