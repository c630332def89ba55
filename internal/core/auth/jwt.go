package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTService validates access tokens issued by Supabase Auth (HS256 with
// the project JWT secret)
type JWTService struct {
	secretKey []byte
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey string) *JWTService {
	return &JWTService{secretKey: []byte(secretKey)}
}

// ValidateAccessToken parses the token and returns the caller
func (s *JWTService) ValidateAccessToken(tokenString string) (*Principal, error) {
	claims := &SupabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not an account id", ErrInvalidToken)
	}

	role := RoleUser
	if claims.AppMetadata.Role == RoleAdmin {
		role = RoleAdmin
	}

	return &Principal{
		AccountID: accountID,
		Email:     claims.Email,
		Role:      role,
	}, nil
}

// GenerateAccessToken signs a token the same way Supabase does. Used by
// tests and local tooling; production tokens come from Supabase Auth.
func (s *JWTService) GenerateAccessToken(p *Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SupabaseClaims{
		Email: p.Email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.AccountID.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if p.Role == RoleAdmin {
		claims.AppMetadata.Role = RoleAdmin
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
