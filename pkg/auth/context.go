package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/scrtlabs/trading-middleware/pkg/app/errors"
	apphttp "github.com/scrtlabs/trading-middleware/pkg/app/http"
)

// Context keys for authentication data
type contextKey string

// ContextKeyWalletAddress is the context key for the authenticated wallet address
const ContextKeyWalletAddress contextKey = "wallet_address"

// WithWalletAddress adds the wallet address to the context
func WithWalletAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, ContextKeyWalletAddress, address)
}

// WalletFromContext retrieves the wallet address from the context
func WalletFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(ContextKeyWalletAddress).(string)
	return addr, ok
}

// RequireAuth returns middleware that validates the bearer session token and
// injects the wallet address into the request context. Requests with a
// missing, malformed, or expired token get a 401, never a 500.
func RequireAuth(manager *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := r.Header.Get("Authorization")
			if authorization == "" {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "missing authorization header"))
				return
			}
			if !strings.HasPrefix(authorization, "Bearer ") {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "invalid authorization format"))
				return
			}
			wallet, err := manager.Verify(strings.TrimPrefix(authorization, "Bearer "))
			if err != nil {
				apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(err, "invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithWalletAddress(r.Context(), wallet)))
		})
	}
}
