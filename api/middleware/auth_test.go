package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/srejanashetty/efarm-backend/pkg/auth"
	"github.com/srejanashetty/efarm-backend/pkg/config"
	"github.com/srejanashetty/efarm-backend/pkg/enums"
)

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "efarm", ExpirationMinutes: 60}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT(), nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	cfg := testJWT()
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID, enums.UserRoleFarmer)

	var captured auth.Actor
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, captured.UserID)
	}
	if captured.Role != enums.UserRoleFarmer {
		t.Fatalf("expected farmer role got %s", captured.Role)
	}
}

func TestAuthAcceptsRawToken(t *testing.T) {
	cfg := testJWT()
	token := mintTestToken(t, cfg, uuid.New(), enums.UserRoleUser)
	handler := Auth(cfg, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, enums.UserRoleFarmer, enums.UserRoleAdmin)(okHandler())

	tests := []struct {
		name  string
		actor auth.Actor
		want  int
	}{
		{"anonymous", auth.Actor{}, http.StatusUnauthorized},
		{"buyer", auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, http.StatusForbidden},
		{"farmer", auth.Actor{UserID: uuid.New(), Role: enums.UserRoleFarmer}, http.StatusOK},
		{"admin", auth.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPut, "/api/orders/1/status", nil)
		req = req.WithContext(WithActor(req.Context(), tt.actor))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.want, resp.Code)
		}
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
