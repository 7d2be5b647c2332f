package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature,
// expiry, malformed input or an unexpected algorithm.
var ErrInvalidToken = errors.New("invalid token")

// DefaultTokenTTL is the fixed lifetime of issued tokens
const DefaultTokenTTL = time.Hour

// Claims is the identity carried by a token
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks a raw token and returns its claims
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// TokenService issues and verifies HS256 tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*TokenService)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewTokenService(secret string, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		issuer: "summer-camp-school",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs claims with iat/exp set from the service clock
func (s *TokenService) Issue(email, name string) (string, *Claims, error) {
	if email == "" {
		return "", nil, errors.New("email claim is required")
	}

	now := s.now().Truncate(time.Second)
	claims := &Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify returns the claims of a valid, unexpired token
func (s *TokenService) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ChainVerifier tries each verifier in order and returns the first success
type ChainVerifier []Verifier

func (c ChainVerifier) Verify(token string) (*Claims, error) {
	for _, v := range c {
		if claims, err := v.Verify(token); err == nil {
			return claims, nil
		}
	}
	return nil, ErrInvalidToken
}
