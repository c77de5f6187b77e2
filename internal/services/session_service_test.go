package services

import (
	"context"
	"errors"
	"testing"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/oneentry"
)

type stubAuthGateway struct {
	signupFunc      func(ctx context.Context, values map[string]string) (string, error)
	loginFunc       func(ctx context.Context, values map[string]string) (string, error)
	logoutFunc      func(ctx context.Context, accessToken string) error
	currentUserFunc func(ctx context.Context, accessToken string) (domain.UserIdentity, error)
}

func (s *stubAuthGateway) Signup(ctx context.Context, values map[string]string) (string, error) {
	if s.signupFunc == nil {
		return "", errors.New("unexpected Signup call")
	}
	return s.signupFunc(ctx, values)
}

func (s *stubAuthGateway) Login(ctx context.Context, values map[string]string) (string, error) {
	if s.loginFunc == nil {
		return "", errors.New("unexpected Login call")
	}
	return s.loginFunc(ctx, values)
}

func (s *stubAuthGateway) Logout(ctx context.Context, accessToken string) error {
	if s.logoutFunc == nil {
		return errors.New("unexpected Logout call")
	}
	return s.logoutFunc(ctx, accessToken)
}

func (s *stubAuthGateway) CurrentUser(ctx context.Context, accessToken string) (domain.UserIdentity, error) {
	if s.currentUserFunc == nil {
		return domain.UserIdentity{}, errors.New("unexpected CurrentUser call")
	}
	return s.currentUserFunc(ctx, accessToken)
}

func TestSessionServiceLoginResolvesIdentity(t *testing.T) {
	gateway := &stubAuthGateway{
		loginFunc: func(ctx context.Context, values map[string]string) (string, error) {
			if values["email"] != "ada@example.com" {
				t.Fatalf("unexpected login values %+v", values)
			}
			return "token-abc", nil
		},
		currentUserFunc: func(ctx context.Context, accessToken string) (domain.UserIdentity, error) {
			if accessToken != "token-abc" {
				t.Fatalf("unexpected access token %q", accessToken)
			}
			return domain.UserIdentity{ID: "u-1", Email: "ada@example.com", Name: "Ada"}, nil
		},
	}
	service, err := NewSessionService(SessionServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing session service: %v", err)
	}

	result, err := service.Login(context.Background(), map[string]string{
		"email":    "ada@example.com",
		"password": "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccessToken != "token-abc" {
		t.Fatalf("expected access token passed through, got %q", result.AccessToken)
	}
	if result.User.ID != "u-1" {
		t.Fatalf("expected resolved user, got %+v", result.User)
	}
}

func TestSessionServiceLoginTranslatesRejection(t *testing.T) {
	gateway := &stubAuthGateway{
		loginFunc: func(ctx context.Context, values map[string]string) (string, error) {
			return "", oneentry.ErrRejected
		},
	}
	service, err := NewSessionService(SessionServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing session service: %v", err)
	}

	if _, err := service.Login(context.Background(), nil); !errors.Is(err, ErrSessionRejected) {
		t.Fatalf("expected ErrSessionRejected, got %v", err)
	}
}

func TestSessionServiceSignupReturnsIdentifier(t *testing.T) {
	gateway := &stubAuthGateway{
		signupFunc: func(ctx context.Context, values map[string]string) (string, error) {
			return "ada@example.com", nil
		},
	}
	service, err := NewSessionService(SessionServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing session service: %v", err)
	}

	result, err := service.Signup(context.Background(), map[string]string{"email": "ada@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Identifier != "ada@example.com" {
		t.Fatalf("expected identifier, got %q", result.Identifier)
	}
}

func TestSessionServiceLogoutTolerance(t *testing.T) {
	service, err := NewSessionService(SessionServiceDeps{Gateway: &stubAuthGateway{
		logoutFunc: func(ctx context.Context, accessToken string) error {
			return oneentry.ErrUnauthorized
		},
	}})
	if err != nil {
		t.Fatalf("unexpected error constructing session service: %v", err)
	}

	if err := service.Logout(context.Background(), ""); err != nil {
		t.Fatalf("expected blank token logout to be a no-op, got %v", err)
	}
	if err := service.Logout(context.Background(), "stale-token"); err != nil {
		t.Fatalf("expected stale token logout to succeed, got %v", err)
	}
}

func TestSessionServiceCurrentUserRequiresToken(t *testing.T) {
	service, err := NewSessionService(SessionServiceDeps{Gateway: &stubAuthGateway{}})
	if err != nil {
		t.Fatalf("unexpected error constructing session service: %v", err)
	}

	if _, err := service.CurrentUser(context.Background(), " "); !errors.Is(err, ErrSessionUnauthorized) {
		t.Fatalf("expected ErrSessionUnauthorized, got %v", err)
	}
}
