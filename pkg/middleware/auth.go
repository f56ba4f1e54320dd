package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type userKey struct{}
type tokenKey struct{}

// BearerToken returns the raw bearer token stored by Authenticate, for
// forwarding to the upstream API. Empty for anonymous requests.
func BearerToken(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok {
		return t
	}
	return ""
}

// CurrentUser returns the verified session claims stored by Authenticate,
// or nil when the request is anonymous.
func CurrentUser(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(userKey{}).(*auth.Claims); ok {
		return c
	}
	return nil
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// Authenticate verifies a bearer token when one is present and stores the
// claims in the request context. Anonymous requests pass through: screens
// decide for themselves whether to redirect to sign-in (the order screen
// does, the product screen does not).
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, claims)
		ctx = context.WithValue(ctx, tokenKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects requests whose session is missing or not admin-flagged.
// Wrap the admin product-edit routes with it.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := CurrentUser(r.Context())
		if claims == nil {
			response.Unauthorized(w)
			return
		}
		if !claims.IsAdmin {
			response.Forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
