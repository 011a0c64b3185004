package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	authority "github.com/halcyonlabs/authority"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity attached by [Authenticate],
// if any.
func IdentityFromContext(ctx context.Context) (*authority.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authority.Identity)
	return id, ok
}

// Authenticate verifies the bearer access token and injects the
// resulting identity into the request context. Requests without a
// verifiable token are rejected with 401.
func Authenticate(engine *authority.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				deny(w, authority.ErrUnauthenticated)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				deny(w, authority.ErrUnauthenticated)
				return
			}

			identity, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				deny(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits only authenticated subjects whose role is in the
// given set. An empty set admits any authenticated subject. Must be
// mounted after [Authenticate].
func RequireRole(engine *authority.Engine, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				deny(w, authority.ErrUnauthenticated)
				return
			}

			if err := engine.Authorize(r.Context(), identity, roles...); err != nil {
				deny(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, err error) {
	kind := authority.KindOf(err)

	status := http.StatusUnauthorized
	message := err.Error()
	switch kind {
	case authority.KindForbidden:
		status = http.StatusForbidden
	case authority.KindStoreFailure:
		status = http.StatusInternalServerError
		message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  string(kind),
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
