package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	authority "github.com/halcyonlabs/authority"
	"github.com/halcyonlabs/authority/middleware"
)

const maxJSONBodyBytes = 1 << 20

// statusFor maps each error kind to its response status. The table is
// the single place kinds meet HTTP.
var statusFor = map[authority.Kind]int{
	authority.KindMissingField:       http.StatusUnprocessableEntity,
	authority.KindConflict:           http.StatusConflict,
	authority.KindInvalidCredentials: http.StatusUnauthorized,
	authority.KindUnauthenticated:    http.StatusUnauthorized,
	authority.KindRefreshInvalid:     http.StatusUnauthorized,
	authority.KindAccessExpired:      http.StatusUnauthorized,
	authority.KindAccessInvalid:      http.StatusUnauthorized,
	authority.KindForbidden:          http.StatusForbidden,
	authority.KindUserNotFound:       http.StatusNotFound,
	authority.KindStoreFailure:       http.StatusInternalServerError,
}

// Handler serves the credential and session endpoints over an
// authority.Engine.
type Handler struct {
	engine *authority.Engine
	logger *zap.Logger
}

// NewHandler wires the engine behind the HTTP surface. A nil logger is
// replaced with a no-op one.
func NewHandler(engine *authority.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger}
}

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
	Role   string `json:"role,omitempty"`
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !h.decode(w, r, &body) {
		return
	}

	id, err := h.engine.Register(r.Context(), authority.RegisterInput{
		Name:   body.Name,
		Email:  body.Email,
		Secret: body.Secret,
		Role:   body.Role,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !h.decode(w, r, &body) {
		return
	}

	result, err := h.engine.Login(r.Context(), body.Email, body.Secret)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":       result.UserID,
		"name":          result.Name,
		"email":         result.Email,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if !h.decode(w, r, &body) {
		return
	}

	pair, err := h.engine.Refresh(r.Context(), strings.TrimSpace(body.RefreshToken))
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, authority.ErrUnauthenticated)
		return
	}

	if err := h.engine.Logout(r.Context(), identity.UserID, identity.Token); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, authority.ErrUnauthenticated)
		return
	}

	user, err := h.engine.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	latency, err := h.engine.Ping(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"latency": latency.String(),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid json body",
			"code":  "bad_request",
		})
		return false
	}

	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := authority.KindOf(err)

	status, ok := statusFor[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if kind == authority.KindStoreFailure {
		// Never leak store internals to clients.
		h.logger.Error("request failed", zap.Error(err))
		message = "internal error"
	}

	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  string(kind),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
