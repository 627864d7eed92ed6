package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/littertag/internal/auth"
	"github.com/mmynk/littertag/internal/models"
)

func writeStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	http.Error(w, err.Error(), status)
}

func tokenFor(t *testing.T, m *auth.JWTManager, role models.Role) string {
	t.Helper()
	user := models.NewUser("u@example.com", "U", "hash")
	user.Role = role
	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return token
}

func TestRequireAuthAndAdmin(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Hour)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			t.Error("Expected user ID in context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	userOnly := RequireAuth(m, writeStatus)(ok)
	adminOnly := RequireAuth(m, writeStatus)(RequireAdmin(writeStatus)(ok))

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		want    int
	}{
		{"no header", userOnly, "", http.StatusUnauthorized},
		{"wrong scheme", userOnly, "Basic abc", http.StatusUnauthorized},
		{"garbage token", userOnly, "Bearer abc", http.StatusUnauthorized},
		{"user token", userOnly, "Bearer " + tokenFor(t, m, models.RoleUser), http.StatusNoContent},
		{"user on admin route", adminOnly, "Bearer " + tokenFor(t, m, models.RoleUser), http.StatusForbidden},
		{"admin on admin route", adminOnly, "Bearer " + tokenFor(t, m, models.RoleAdmin), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("Status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Hour)
	var seen string
	h := OptionalAuth(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "" {
		t.Errorf("Expected anonymous request, got user %q", seen)
	}
}

func TestRequestLogger_RecordsRouteAndUser(t *testing.T) {
	m := auth.NewJWTManager("secret", time.Hour)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.With(RequireAuth(m, writeStatus)).Get("/photos/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/photos/42", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, m, models.RoleUser))
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, `"status":418`) {
		t.Errorf("Expected status in log, got %s", out)
	}
	if strings.Contains(out, `"user_id":""`) {
		t.Errorf("Expected user ID in log, got %s", out)
	}
}
