package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/joakimtj/eventdesk/internal/auth"
	"github.com/joakimtj/eventdesk/internal/http/handlers"
	"github.com/joakimtj/eventdesk/internal/security"
)

func TestAuthHandler_Login(t *testing.T) {
	hash, err := security.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	jwt := auth.NewManager("test-secret", "eventdesk", time.Hour)
	h := handlers.NewAuthHandler(handlers.AdminCredentials{Email: "Admin@Example.com", PasswordHash: hash}, jwt, 3600, nil)
	r := setupRouter(http.MethodPost, "/auth/login", h.Login)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"success", `{"email":"admin@example.com","password":"s3cret-pass"}`, http.StatusOK},
		{"wrong_password", `{"email":"admin@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"wrong_email", `{"email":"other@example.com","password":"s3cret-pass"}`, http.StatusUnauthorized},
		{"invalid_body", `{"email":"not-an-email"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/auth/login", tt.body)
			if w.Code != tt.want {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.want, w.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}

			env := decodeEnvelope(t, w)
			var data struct {
				AccessToken string `json:"accessToken"`
				ExpiresIn   int    `json:"expiresIn"`
			}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if data.ExpiresIn != 3600 {
				t.Fatalf("expiresIn = %d", data.ExpiresIn)
			}

			claims, err := jwt.VerifyAccessToken(data.AccessToken)
			if err != nil {
				t.Fatalf("issued token does not verify: %v", err)
			}
			if claims.Role != auth.RoleAdmin {
				t.Fatalf("role = %q", claims.Role)
			}
		})
	}
}

func TestAuthHandler_NoPasswordConfigured(t *testing.T) {
	jwt := auth.NewManager("test-secret", "eventdesk", time.Hour)
	h := handlers.NewAuthHandler(handlers.AdminCredentials{Email: "admin@example.com"}, jwt, 3600, nil)
	r := setupRouter(http.MethodPost, "/auth/login", h.Login)

	w := doJSON(r, http.MethodPost, "/auth/login", `{"email":"admin@example.com","password":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty password must fail binding, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/auth/login", `{"email":"admin@example.com","password":"anything"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}
