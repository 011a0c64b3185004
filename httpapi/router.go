package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	authority "github.com/halcyonlabs/authority"
	"github.com/halcyonlabs/authority/middleware"
)

// NewRouter mounts the full HTTP surface: the public credential
// endpoints, the authenticated session endpoints, and the role-gated
// probes.
func NewRouter(engine *authority.Engine, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := NewHandler(engine, logger)

	r := mux.NewRouter()
	r.Use(accessLog(logger))

	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.Authenticate(engine))
	authed.HandleFunc("/logout", h.Logout).Methods(http.MethodGet)
	authed.HandleFunc("/me", h.Me).Methods(http.MethodGet)

	admin := authed.NewRoute().Subrouter()
	admin.Use(middleware.RequireRole(engine, authority.RoleAdmin))
	admin.HandleFunc("/admin", probe("admin area")).Methods(http.MethodGet)

	moderated := authed.NewRoute().Subrouter()
	moderated.Use(middleware.RequireRole(engine, authority.RoleAdmin, authority.RoleModerator))
	moderated.HandleFunc("/moderated", probe("moderated area")).Methods(http.MethodGet)

	return r
}

func probe(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": message})
	}
}

// statusRecorder captures the status written by the handler chain so the
// access log can report it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func accessLog(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
