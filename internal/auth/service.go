package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Service authenticates the single configured operator and issues HS256
// session tokens for the operator surface.
type Service struct {
	issuer       string
	secret       []byte
	ttl          time.Duration
	username     string
	passwordHash []byte
}

func NewService(issuer string, secret []byte, ttl time.Duration, username, passwordHash string) *Service {
	return &Service{
		issuer:       issuer,
		secret:       secret,
		ttl:          ttl,
		username:     username,
		passwordHash: []byte(passwordHash),
	}
}

func (s *Service) Login(username, password string) (string, error) {
	if username != s.username {
		return "", errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a session token and returns its subject.
func (s *Service) ParseToken(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}
