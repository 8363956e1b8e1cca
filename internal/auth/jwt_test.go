package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var testSecret = []byte("test-secret-key-for-testing")

func TestGenerateAndValidateToken(t *testing.T) {
	tenantID := uuid.New()

	token, err := GenerateToken(tenantID, "user-42", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.TenantID != tenantID.String() {
		t.Errorf("Expected tenant %s, got %s", tenantID, claims.TenantID)
	}
	if claims.UserID != "user-42" {
		t.Errorf("Expected user-42, got %s", claims.UserID)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ValidateToken(token, []byte("a-different-secret")); err == nil {
		t.Error("Expected validation to fail with the wrong secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ValidateToken(token, testSecret); err == nil {
		t.Error("Expected validation to fail for an expired token")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	if _, err := ValidateToken("not.a.token", testSecret); err == nil {
		t.Error("Expected validation to fail for garbage input")
	}
}
