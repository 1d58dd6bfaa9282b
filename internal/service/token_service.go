package service

import (
	"errors"
	"fmt"
	"time"

	"solver-rebalancer/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AdminAudience scopes operator tokens to the admin API, so a token minted
// for another service under the same secret is rejected.
const AdminAudience = "solver-admin"

// JWTTokenService mints and checks HS256 operator tokens.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}
}

// Generate mints a token for an operator. Used by `solver token`.
func (s *JWTTokenService) Generate(operator string) (string, time.Time, error) {
	switch {
	case operator == "":
		return "", time.Time{}, errors.New("operator subject is required")
	case len(s.secret) == 0:
		return "", time.Time{}, errors.New("jwt.secret is not configured")
	}

	issued := s.now()
	expires := issued.Add(s.expiry)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   operator,
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{AdminAudience},
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign operator token: %w", err)
	}
	return signed, expires, nil
}

func (s *JWTTokenService) Validate(raw string) (*ports.TokenClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(AdminAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("operator token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("operator token: missing subject")
	}
	return &ports.TokenClaims{Subject: claims.Subject, TokenID: claims.ID}, nil
}
