package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/haatmakaam/backend/internal/account"
)

const tokenTTL = 24 * time.Hour

var (
	// ErrTokenExpired signals a token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers malformed tokens, bad signatures and tampered
	// claims; callers cannot tell those sub-cases apart.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims are the fields carried inside an access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 bearer tokens. The signing key is
// injected once at construction and never consulted from ambient state.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenService builds a token service around the configured secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{signingKey: []byte(secret), ttl: tokenTTL, now: time.Now}
}

// Issue signs a token for the subject phone number, valid for 24 hours.
func (s *TokenService) Issue(subject string, role account.Role) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate checks signature integrity and expiry, returning the embedded
// claims. Failures collapse to ErrTokenExpired or ErrTokenInvalid.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
