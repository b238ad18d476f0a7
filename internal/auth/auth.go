// Package auth verifies HS256 bearer tokens and carries the caller in the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Clark-Hu/learnhub/internal/domain"
)

var (
	ErrNoCredentials      = errors.New("auth: missing bearer token")
	ErrInvalidCredentials = errors.New("auth: invalid token")
	ErrExpiredCredentials = errors.New("auth: token expired")
)

// Claims is the token payload: sub is the user UUID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for secret. Tokens are accepted with a small clock skew.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(30*time.Second),
		),
	}, nil
}

// Verify parses raw and returns the actor it identifies.
func (v *Verifier) Verify(raw string) (domain.Actor, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, ErrExpiredCredentials
		}
		return domain.Actor{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidCredentials)
	}
	role := domain.Role(strings.ToLower(claims.Role))
	if !role.Valid() {
		return domain.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidCredentials, claims.Role)
	}
	return domain.Actor{UserID: userID.String(), Role: role}, nil
}

// Authenticate extracts and verifies the bearer token of r.
func (v *Verifier) Authenticate(r *http.Request) (domain.Actor, error) {
	token := BearerToken(r)
	if token == "" {
		return domain.Actor{}, ErrNoCredentials
	}
	return v.Verify(token)
}

// Sign issues a token for actor. Used by tests and local tooling.
func (v *Verifier) Sign(actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// BearerToken returns the token from "Authorization: Bearer <token>", or "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type actorKey struct{}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor stored by WithActor.
func FromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
