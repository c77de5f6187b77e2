package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/oneentry"
	"github.com/pratshop/storefront/internal/platform/textutil"
)

var (
	errSessionGatewayRequired = errors.New("session service: gateway is required")

	// ErrSessionRejected indicates the CMS rejected the credentials or
	// signup payload. The message is safe to show the visitor.
	ErrSessionRejected = errors.New("session service: rejected")
	// ErrSessionUnauthorized indicates the access token is missing or stale.
	ErrSessionUnauthorized = errors.New("session service: unauthorized")
	// ErrSessionUnavailable indicates the CMS auth provider is unreachable.
	ErrSessionUnavailable = errors.New("session service: unavailable")
)

// AuthGateway is the slice of the CMS client the auth flows go through.
type AuthGateway interface {
	Signup(ctx context.Context, values map[string]string) (string, error)
	Login(ctx context.Context, values map[string]string) (string, error)
	Logout(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (domain.UserIdentity, error)
}

// SessionServiceDeps wires the CMS auth gateway into the session service.
type SessionServiceDeps struct {
	Gateway AuthGateway
	Logger  func(context.Context, string, map[string]any)
}

type sessionService struct {
	gateway AuthGateway
	logger  func(context.Context, string, map[string]any)
}

// NewSessionService constructs a SessionService.
func NewSessionService(deps SessionServiceDeps) (SessionService, error) {
	if deps.Gateway == nil {
		return nil, errSessionGatewayRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &sessionService{gateway: deps.Gateway, logger: logger}, nil
}

// Signup creates the account and returns its identifier. The visitor logs in
// as a separate step.
func (s *sessionService) Signup(ctx context.Context, values map[string]string) (SignupResult, error) {
	identifier, err := s.gateway.Signup(ctx, textutil.NormalizeMarkers(values))
	if err != nil {
		return SignupResult{}, s.translateAuthError(err)
	}
	s.logger(ctx, "session.signup", map[string]any{"identifier": identifier})
	return SignupResult{Identifier: identifier}, nil
}

// Login exchanges credentials for a CMS access token and resolves the
// identity behind it in the same call.
func (s *sessionService) Login(ctx context.Context, values map[string]string) (LoginResult, error) {
	accessToken, err := s.gateway.Login(ctx, textutil.NormalizeMarkers(values))
	if err != nil {
		return LoginResult{}, s.translateAuthError(err)
	}
	user, err := s.gateway.CurrentUser(ctx, accessToken)
	if err != nil {
		return LoginResult{}, s.translateAuthError(err)
	}
	s.logger(ctx, "session.login", map[string]any{"userID": user.ID})
	return LoginResult{AccessToken: accessToken, User: user}, nil
}

// Logout revokes the CMS access token. A missing token is already logged
// out, so it is not an error.
func (s *sessionService) Logout(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}
	if err := s.gateway.Logout(ctx, accessToken); err != nil {
		if errors.Is(err, oneentry.ErrUnauthorized) {
			return nil
		}
		return s.translateAuthError(err)
	}
	return nil
}

func (s *sessionService) CurrentUser(ctx context.Context, accessToken string) (domain.UserIdentity, error) {
	if strings.TrimSpace(accessToken) == "" {
		return domain.UserIdentity{}, ErrSessionUnauthorized
	}
	user, err := s.gateway.CurrentUser(ctx, accessToken)
	if err != nil {
		return domain.UserIdentity{}, s.translateAuthError(err)
	}
	return user, nil
}

func (s *sessionService) translateAuthError(err error) error {
	switch {
	case errors.Is(err, oneentry.ErrRejected):
		return fmt.Errorf("%w: %v", ErrSessionRejected, err)
	case errors.Is(err, oneentry.ErrUnauthorized):
		return ErrSessionUnauthorized
	case errors.Is(err, oneentry.ErrUnavailable), errors.Is(err, oneentry.ErrNotFound):
		return ErrSessionUnavailable
	default:
		return err
	}
}
