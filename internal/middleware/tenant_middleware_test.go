package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"ai_orchestrator/internal/auth"
)

var testSecret = []byte("middleware-test-secret")

func protectedHandler(t *testing.T, wantTenant uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := GetTenantID(r.Context())
		if !ok {
			t.Error("Tenant ID missing from context")
		}
		if tenantID != wantTenant {
			t.Errorf("Expected tenant %s, got %s", wantTenant, tenantID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestTenantMiddleware_ValidToken(t *testing.T) {
	tenantID := uuid.New()
	token, err := auth.GenerateToken(tenantID, "user-1", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	handler := TenantMiddleware(testSecret)(protectedHandler(t, tenantID))

	req := httptest.NewRequest("POST", "/ai/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestTenantMiddleware_MissingToken(t *testing.T) {
	handler := TenantMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run without a token")
	}))

	req := httptest.NewRequest("POST", "/ai/tasks", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestTenantMiddleware_InvalidToken(t *testing.T) {
	handler := TenantMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run with an invalid token")
	}))

	req := httptest.NewRequest("POST", "/ai/tasks", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestTenantMiddleware_WrongSecret(t *testing.T) {
	token, err := auth.GenerateToken(uuid.New(), "", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	handler := TenantMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler must not run with a token signed by another secret")
	}))

	req := httptest.NewRequest("POST", "/ai/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestGetTenantID_AbsentContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := GetTenantID(req.Context()); ok {
		t.Error("Expected no tenant in a bare context")
	}
}
