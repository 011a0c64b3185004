package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	authority "github.com/halcyonlabs/authority"
	"github.com/halcyonlabs/authority/credstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := authority.DefaultConfig()
	cfg.Token.AccessSecret = []byte("httpapi-test-access-secret")
	cfg.Token.RefreshSecret = []byte("httpapi-test-refresh-secret")
	cfg.Token.Issuer = "httpapi-test"
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16

	engine, err := authority.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(credstore.NewMemory()).
		Build()
	if err != nil {
		t.Fatalf("engine build: %v", err)
	}

	server := httptest.NewServer(NewRouter(engine, zap.NewNop()))
	t.Cleanup(server.Close)

	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func getWithToken(t *testing.T, url, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	return out
}

func registerUser(t *testing.T, server *httptest.Server, email, role string) {
	t.Helper()

	resp := postJSON(t, server.URL+"/register", map[string]string{
		"name":   "Test User",
		"email":  email,
		"secret": "correct-horse-battery",
		"role":   role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
}

func loginUser(t *testing.T, server *httptest.Server, email string) (access, refresh string) {
	t.Helper()

	resp := postJSON(t, server.URL+"/login", map[string]string{
		"email":  email,
		"secret": "correct-horse-battery",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["access_token"] == "" || body["refresh_token"] == "" {
		t.Fatal("expected a full token pair in the login response")
	}

	return body["access_token"], body["refresh_token"]
}

func TestRegisterLoginMeFlow(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "alice@example.com", "")
	access, _ := loginUser(t, server, "alice@example.com")

	resp := getWithToken(t, server.URL+"/me", access)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["email"] != "alice@example.com" {
		t.Fatalf("me email = %q", body["email"])
	}
	if body["role"] != authority.RoleMember {
		t.Fatalf("me role = %q, want %q", body["role"], authority.RoleMember)
	}
}

func TestRegisterValidation(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/register", map[string]string{
		"name": "No Email Or Secret",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("missing fields status = %d, want 422", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["code"] != string(authority.KindMissingField) {
		t.Fatalf("code = %q, want %q", body["code"], authority.KindMissingField)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "alice@example.com", "")

	resp := postJSON(t, server.URL+"/register", map[string]string{
		"name":   "Other Alice",
		"email":  "alice@example.com",
		"secret": "another-long-secret",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["code"] != string(authority.KindConflict) {
		t.Fatalf("code = %q, want %q", body["code"], authority.KindConflict)
	}
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"secret":   "correct-horse-battery",
		"is_admin": "true",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d, want 400", resp.StatusCode)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "alice@example.com", "")

	resp := postJSON(t, server.URL+"/login", map[string]string{
		"email":  "alice@example.com",
		"secret": "wrong-secret-here",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["code"] != string(authority.KindInvalidCredentials) {
		t.Fatalf("code = %q, want %q", body["code"], authority.KindInvalidCredentials)
	}
}

func TestRefreshRotationFlow(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "alice@example.com", "")
	_, refresh := loginUser(t, server, "alice@example.com")

	resp := postJSON(t, server.URL+"/refresh", map[string]string{"refresh_token": refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d, want 200", resp.StatusCode)
	}
	rotated := decodeBody(t, resp)
	if rotated["refresh_token"] == "" || rotated["refresh_token"] == refresh {
		t.Fatal("expected a rotated refresh token")
	}

	// Replaying the consumed token must fail.
	resp = postJSON(t, server.URL+"/refresh", map[string]string{"refresh_token": refresh})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reuse status = %d, want 401", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["code"] != string(authority.KindRefreshInvalid) {
		t.Fatalf("code = %q, want %q", body["code"], authority.KindRefreshInvalid)
	}
}

func TestLogoutRevokesAccess(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "alice@example.com", "")
	access, refresh := loginUser(t, server, "alice@example.com")

	resp := getWithToken(t, server.URL+"/logout", access)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", resp.StatusCode)
	}

	// The presenting access token is dead.
	resp = getWithToken(t, server.URL+"/me", access)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d, want 401", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["code"] != string(authority.KindAccessInvalid) {
		t.Fatalf("code = %q, want %q", body["code"], authority.KindAccessInvalid)
	}

	// So is the refresh token.
	resp = postJSON(t, server.URL+"/refresh", map[string]string{"refresh_token": refresh})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status = %d, want 401", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/me", "/logout", "/admin", "/moderated"} {
		resp := getWithToken(t, server.URL+path, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s without token status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestRoleGates(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "admin@example.com", authority.RoleAdmin)
	registerUser(t, server, "mod@example.com", authority.RoleModerator)
	registerUser(t, server, "member@example.com", "")

	adminAccess, _ := loginUser(t, server, "admin@example.com")
	modAccess, _ := loginUser(t, server, "mod@example.com")
	memberAccess, _ := loginUser(t, server, "member@example.com")

	cases := []struct {
		path   string
		token  string
		status int
	}{
		{"/admin", adminAccess, http.StatusOK},
		{"/admin", modAccess, http.StatusForbidden},
		{"/admin", memberAccess, http.StatusForbidden},
		{"/moderated", adminAccess, http.StatusOK},
		{"/moderated", modAccess, http.StatusOK},
		{"/moderated", memberAccess, http.StatusForbidden},
	}

	for _, tc := range cases {
		resp := getWithToken(t, server.URL+tc.path, tc.token)
		if resp.StatusCode != tc.status {
			t.Fatalf("GET %s status = %d, want %d", tc.path, resp.StatusCode, tc.status)
		}
		if tc.status == http.StatusForbidden {
			if body := decodeBody(t, resp); body["code"] != string(authority.KindForbidden) {
				t.Fatalf("code = %q, want %q", body["code"], authority.KindForbidden)
			}
		}
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp := getWithToken(t, server.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["status"] != "ok" {
		t.Fatalf("healthz status field = %q", body["status"])
	}
}
