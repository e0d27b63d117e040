package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/service"
)

type contextKey string

// userContextKey holds the authenticated *model.User.
const userContextKey contextKey = "auth_user"

// RequireUser rejects requests without a valid bearer token and injects
// the caller into the request context.
func RequireUser(users service.Userer, m errorMapper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				m.fail(w, r, model.ErrUnauthorized, "")
				return
			}
			u, err := users.Authenticate(r.Context(), token)
			if err != nil {
				m.fail(w, r, err, "")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, u)))
		})
	}
}

// CurrentUser returns the caller set by RequireUser.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userContextKey).(*model.User)
	return u, ok
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
