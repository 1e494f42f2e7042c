// Package auth verifies bearer tokens issued by the hosted auth service and
// puts the authenticated user on the request context.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/invoicegen/internal/config"
	"go.uber.org/zap"
)

const (
	leeway         = 30 * time.Second
	ephemeralBytes = 32
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier builds a verifier from config. Outside production an empty
// secret is replaced by a random one, so tokens only verify when minted by
// this process.
func NewVerifier(cfg config.Config, log *zap.Logger) (*Verifier, error) {
	secret := []byte(strings.TrimSpace(cfg.JWTSecret))
	if len(secret) == 0 {
		if cfg.IsProduction() {
			return nil, ErrMissingSecret
		}
		secret = make([]byte, ephemeralBytes)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		log.Named("auth").Warn("jwt secret not configured, using ephemeral secret")
	}
	return &Verifier{secret: secret, issuer: strings.TrimSpace(cfg.JWTIssuer)}, nil
}

// Sign issues a token for the identity. Used by the CLI and tests.
func (v *Verifier) Sign(id Identity, now time.Time, ttl time.Duration) (string, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return "", ErrMissingSubject
	}
	rc := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   id.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if v.issuer != "" {
		rc.Issuer = v.issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{Email: id.Email, RegisteredClaims: rc})
	return token.SignedString(v.secret)
}

// Verify parses and validates a raw token.
func (v *Verifier) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, errors.Join(ErrInvalidToken, err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if strings.TrimSpace(c.Subject) == "" {
		return Identity{}, ErrMissingSubject
	}
	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
