package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kasir/internal/domain/auth"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// SecurityHandler authenticates API requests via HMAC-SHA256 hashed API keys
// and authorizes them by role.
type SecurityHandler struct {
	users  auth.Repository
	pepper []byte
}

// NewSecurityHandler creates a SecurityHandler with the given user
// repository and HMAC pepper.
func NewSecurityHandler(users auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		users:  users,
		pepper: pepper,
	}
}

// Authenticate resolves the API key to a user and stores it in the request
// context. Requests without a valid key get 401; lookup failures get 500.
func (s *SecurityHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			writeStatus(w, http.StatusUnauthorized, "missing API key")
			return
		}

		hash := auth.HashKey(s.pepper, key)
		user, err := s.users.FindByKeyHash(r.Context(), hash)
		if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, r, errors.Wrap(err, "find user"))
			return
		}
		// The stored hash is compared in constant time in case the lookup
		// matched loosely.
		if err != nil || subtle.ConstantTimeCompare([]byte(hash), []byte(user.KeyHash)) != 1 {
			writeStatus(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := auth.WithUser(r.Context(), user)
		ctx = zctx.With(ctx, zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require rejects with 403 users whose role lacks p.
func (s *SecurityHandler) Require(p auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user == nil || !user.Role.Allows(p) {
				writeStatus(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) { encodeError(e, status, msg) })
}
