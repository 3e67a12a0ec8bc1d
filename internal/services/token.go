package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"socal/internal/config"
	"socal/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleUser is the only role the API hands out.
const RoleUser = "User"

// Principal is the identity resolved from a valid access token.
type Principal struct {
	ID    uint
	Name  string
	Email string
	Role  string
}

type tokenClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access tokens. It keeps no state
// beyond its configuration, so a token stays valid until it expires.
type TokenService struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenService(cfg config.JWT) *TokenService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{
		key:      []byte(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *TokenService) Issue(user *models.User) (string, error) {
	if user == nil || user.ID == 0 {
		return "", errors.New("issue token: user has no id")
	}
	now := s.now()
	claims := tokenClaims{
		Name:  user.Username,
		Email: user.Email,
		Role:  RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) Validate(token string) (Principal, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Principal{}, fmt.Errorf("%w: malformed subject", ErrAuthentication)
	}
	return Principal{
		ID:    uint(id),
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// NewRefreshToken returns an opaque random string. Nothing stores or
// redeems it; clients receive it alongside the access token.
func NewRefreshToken() string {
	id := uuid.New()
	return base64.StdEncoding.EncodeToString(id[:])
}
