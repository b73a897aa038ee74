package taskserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kastheco/tareas/internal/clock"
)

// DefaultTokenTTL is the lifetime of tokens issued by IssueToken.
const DefaultTokenTTL = 30 * 24 * time.Hour

const tokenIssuer = "tareas"

var errMissingToken = errors.New("missing bearer token")

// Authenticator issues and verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	clock  clock.Clock
}

// NewAuthenticator returns an Authenticator signing with secret.
func NewAuthenticator(secret []byte, c clock.Clock) *Authenticator {
	if c == nil {
		c = clock.Real()
	}
	return &Authenticator{secret: secret, clock: c}
}

// IssueToken signs a token for subject valid for ttl (DefaultTokenTTL when ttl <= 0).
func (a *Authenticator) IssueToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := a.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns its subject.
func (a *Authenticator) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid "Authorization: Bearer" header.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		token, err := bearerToken(r)
		if err == nil {
			_, err = a.Verify(token)
		}
		if err != nil {
			writeError(w, http.StatusUnauthorized, "No autorizado")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(token), nil
}
