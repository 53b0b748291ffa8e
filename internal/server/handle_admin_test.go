package server

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestAdminLogin(t *testing.T) {
	env := setupAPI(t, "0")

	tests := []struct {
		name string
		req  AdminLoginRequest
		want int
	}{
		{"valid", AdminLoginRequest{Email: "admin@sketchduel.dev", Password: "changeme"}, http.StatusOK},
		{"email is normalized", AdminLoginRequest{Email: "  Admin@SketchDuel.dev ", Password: "changeme"}, http.StatusOK},
		{"wrong password", AdminLoginRequest{Email: "admin@sketchduel.dev", Password: "nope"}, http.StatusUnauthorized},
		{"unknown email", AdminLoginRequest{Email: "ghost@sketchduel.dev", Password: "changeme"}, http.StatusUnauthorized},
		{"empty body", AdminLoginRequest{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/admin/login", tt.req)
			if w.Code != tt.want {
				t.Errorf("got %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK {
				var found bool
				for _, c := range w.Result().Cookies() {
					if c.Name == adminCookieName && c.Value != "" {
						found = true
					}
				}
				if !found {
					t.Error("login did not set a session cookie")
				}
			}
		})
	}
}

func TestAdminMe(t *testing.T) {
	env := setupAPI(t, "0")

	w := env.do(t, http.MethodGet, "/api/admin/me", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("without session: expected 401, got %d", w.Code)
	}

	cookies := env.login(t)
	w = env.do(t, http.MethodGet, "/api/admin/me", nil, cookies...)
	if w.Code != http.StatusOK {
		t.Fatalf("with session: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var me AdminMeResponse
	json.NewDecoder(w.Body).Decode(&me)
	if me.Email != "admin@sketchduel.dev" {
		t.Errorf("email = %q, want admin@sketchduel.dev", me.Email)
	}
}

func TestAdminLogoutInvalidatesSession(t *testing.T) {
	env := setupAPI(t, "0")
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/admin/logout", nil, cookies...)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// The old session cookie is no longer accepted.
	w = env.do(t, http.MethodGet, "/api/admin/me", nil, cookies...)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("after logout: expected 401, got %d", w.Code)
	}
}

func TestStaleSessionCookieRejected(t *testing.T) {
	env := setupAPI(t, "0")

	cookie := &http.Cookie{Name: adminCookieName, Value: "not-a-real-session"}
	w := env.do(t, http.MethodGet, "/api/admin/me", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown session, got %d", w.Code)
	}
}
