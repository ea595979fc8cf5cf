package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned for missing, expired or tampered tokens.
var ErrInvalidToken = errors.New("invalid token")

const defaultTTL = 12 * time.Hour

// Service issues and checks session tokens.
type Service struct {
	jwtConfig *JWTConfig
}

// NewService creates a token service. An empty secret is replaced by a random
// one, so tokens only survive as long as the process.
func NewService(jwtConfig *JWTConfig) (*Service, error) {
	cfg := *jwtConfig
	if len(cfg.Secret) == 0 {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Secret = secret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	return &Service{jwtConfig: &cfg}, nil
}

// IssueSession returns a signed token for id.
func (s *Service) IssueSession(id Identity) (string, error) {
	token, err := GenerateToken(s.jwtConfig, id)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims, err := ValidateToken(s.jwtConfig, tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// TTL is how long issued sessions stay valid.
func (s *Service) TTL() time.Duration {
	return s.jwtConfig.TTL
}

func randomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
