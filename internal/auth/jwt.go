package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TenantClaims carries the tenant identity the orchestration layer scopes
// everything by. Issued by the CRM's session service; this package only
// validates.
type TenantClaims struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// ValidateToken parses and validates an HS256 token and returns its claims.
func ValidateToken(tokenString string, secret []byte) (*TenantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*TenantClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if _, err := uuid.Parse(claims.TenantID); err != nil {
		return nil, fmt.Errorf("token has no valid tenant_id claim")
	}

	return claims, nil
}

// GenerateToken issues a tenant token. Used by tests and local tooling;
// production tokens come from the session service.
func GenerateToken(tenantID uuid.UUID, userID string, secret []byte, ttl time.Duration) (string, error) {
	claims := &TenantClaims{
		TenantID: tenantID.String(),
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
