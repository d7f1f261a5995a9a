package http

import (
	"context"
	"net/http"
	"strings"

	"horoscope-hub/internal/domain"
)

// Principal: субъект запроса из access-токена.
type Principal struct {
	UserID  string
	Phone   string
	IsAdmin bool
}

// Authenticator проверяет bearer-токен.
type Authenticator func(token string) (Principal, error)

type principalKey struct{}

// WithPrincipal кладёт субъект в контекст.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom достаёт субъект из контекста.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// BearerAuth требует заголовок Authorization: Bearer <token>.
func BearerAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				WriteFail(w, http.StatusUnauthorized, "unauthorized", "Access denied. No token provided")
				return
			}
			p, err := authn(strings.TrimSpace(token))
			if err != nil {
				WriteFail(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// AdminOnly пропускает только администраторов. Ставится после BearerAuth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok || !p.IsAdmin {
			f := Classify(domain.ErrForbidden)
			WriteJSON(w, f.Status, Envelope{Error: &f.Body})
			return
		}
		next.ServeHTTP(w, r)
	})
}
