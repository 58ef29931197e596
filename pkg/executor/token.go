package executor

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceTokenSigner mints short-lived HS256 tokens presented to tool
// services as Bearer credentials.
type ServiceTokenSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewServiceTokenSigner creates a signer. A zero ttl defaults to one
// minute, which comfortably covers a single invocation.
func NewServiceTokenSigner(secret []byte, issuer string, ttl time.Duration) *ServiceTokenSigner {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ServiceTokenSigner{secret: secret, issuer: issuer, ttl: ttl}
}

// Sign returns a signed token scoped to one tool service. The audience
// is the service ID so a token replayed against another service fails
// validation there.
func (s *ServiceTokenSigner) Sign(serviceID, toolName string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"aud":  serviceID,
		"sub":  toolName,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
		"tool": toolName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing service token: %w", err)
	}
	return signed, nil
}
