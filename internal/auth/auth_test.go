package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Clark-Hu/learnhub/internal/domain"
)

func mustVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier("test-secret")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestVerifyRoundTrip(t *testing.T) {
	v := mustVerifier(t)
	actor := domain.Actor{UserID: uuid.NewString(), Role: domain.RoleInstructor}
	token, err := v.Sign(actor, time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	got, err := v.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got != actor {
		t.Fatalf("actor = %+v, want %+v", got, actor)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := mustVerifier(t)
	other, _ := NewVerifier("other-secret")
	user := uuid.NewString()

	expired, _ := v.Sign(domain.Actor{UserID: user, Role: domain.RoleStudent}, -time.Hour)
	foreign, _ := other.Sign(domain.Actor{UserID: user, Role: domain.RoleStudent}, time.Minute)
	badSubject, _ := v.Sign(domain.Actor{UserID: "alice", Role: domain.RoleStudent}, time.Minute)
	badRole, _ := v.Sign(domain.Actor{UserID: user, Role: "root"}, time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: user}}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, ErrExpiredCredentials},
		{"wrong secret", foreign, ErrInvalidCredentials},
		{"subject not uuid", badSubject, ErrInvalidCredentials},
		{"unknown role", badRole, ErrInvalidCredentials},
		{"alg none", none, ErrInvalidCredentials},
		{"garbage", "a.b.c", ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.Verify(tc.token); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	v := mustVerifier(t)
	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer   "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if _, err := v.Authenticate(req); !errors.Is(err, ErrNoCredentials) {
			t.Fatalf("header %q: err = %v, want ErrNoCredentials", header, err)
		}
	}
}

func TestActorContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("empty context should carry no actor")
	}
	actor := domain.Actor{UserID: uuid.NewString(), Role: domain.RoleAdmin}
	got, ok := FromContext(WithActor(context.Background(), actor))
	if !ok || got != actor {
		t.Fatalf("FromContext = %+v, %v", got, ok)
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier(""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
