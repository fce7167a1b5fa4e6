package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/prasanthmj/webmail/pkg/config"
)

// Authenticator checks webmail credentials and mints session tokens.
// There is a single configured user per deployment; the password is stored
// as a bcrypt hash, never in the clear.
type Authenticator struct {
	user   string
	hash   []byte
	secret []byte
	ttl    time.Duration
}

// NewAuthenticator creates an authenticator from config
func NewAuthenticator(cfg *config.Config) *Authenticator {
	return &Authenticator{
		user:   cfg.WebUser,
		hash:   []byte(cfg.WebPasswordHash),
		secret: []byte(cfg.SessionSecret),
		ttl:    cfg.SessionTTL,
	}
}

// Login verifies the credentials and returns a signed session token
func (a *Authenticator) Login(user, password string) (string, error) {
	if user != a.user {
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify validates a session token and returns the identity it carries
func (a *Authenticator) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid session: %w", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid session")
	}
	return claims.Subject, nil
}
