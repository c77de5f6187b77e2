package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/platform/requestctx"
	"github.com/pratshop/storefront/internal/platform/session"
	"github.com/pratshop/storefront/internal/services"
)

type stubSessionService struct {
	signupFunc      func(ctx context.Context, values map[string]string) (services.SignupResult, error)
	loginFunc       func(ctx context.Context, values map[string]string) (services.LoginResult, error)
	logoutFunc      func(ctx context.Context, accessToken string) error
	currentUserFunc func(ctx context.Context, accessToken string) (domain.UserIdentity, error)
}

func (s *stubSessionService) Signup(ctx context.Context, values map[string]string) (services.SignupResult, error) {
	if s.signupFunc == nil {
		return services.SignupResult{}, errors.New("unexpected Signup call")
	}
	return s.signupFunc(ctx, values)
}

func (s *stubSessionService) Login(ctx context.Context, values map[string]string) (services.LoginResult, error) {
	if s.loginFunc == nil {
		return services.LoginResult{}, errors.New("unexpected Login call")
	}
	return s.loginFunc(ctx, values)
}

func (s *stubSessionService) Logout(ctx context.Context, accessToken string) error {
	if s.logoutFunc == nil {
		return errors.New("unexpected Logout call")
	}
	return s.logoutFunc(ctx, accessToken)
}

func (s *stubSessionService) CurrentUser(ctx context.Context, accessToken string) (domain.UserIdentity, error) {
	if s.currentUserFunc == nil {
		return domain.UserIdentity{}, errors.New("unexpected CurrentUser call")
	}
	return s.currentUserFunc(ctx, accessToken)
}

type stubFormGatewayFunc func(ctx context.Context, marker string) ([]domain.FormField, error)

func (f stubFormGatewayFunc) Form(ctx context.Context, marker string) ([]domain.FormField, error) {
	return f(ctx, marker)
}

// formServiceOver runs the real validation logic over a stubbed CMS gateway.
func formServiceOver(t *testing.T, gateway stubFormGatewayFunc) services.FormService {
	t.Helper()
	if gateway == nil {
		gateway = func(context.Context, string) ([]domain.FormField, error) {
			return nil, errors.New("unexpected Form call")
		}
	}
	forms, err := services.NewFormService(services.FormServiceDeps{Gateway: gateway})
	if err != nil {
		t.Fatalf("unexpected error constructing form service: %v", err)
	}
	return forms
}

func testSessionManager(t *testing.T) *session.Manager {
	t.Helper()
	manager, err := session.NewManager("test-secret-test-secret", "pratshop_session", time.Hour, false)
	if err != nil {
		t.Fatalf("unexpected error constructing manager: %v", err)
	}
	return manager
}

func loginFields() []domain.FormField {
	return []domain.FormField{
		{Marker: "email", Label: "Email", Kind: domain.FormFieldEmail, Required: true, Position: 0},
		{Marker: "password", Label: "Password", Kind: domain.FormFieldPassword, Required: true, Position: 1},
	}
}

func newAuthRouter(t *testing.T, sessions services.SessionService, forms services.FormService) chi.Router {
	t.Helper()
	handler := NewAuthHandlers(sessions, forms, testSessionManager(t))
	router := chi.NewRouter()
	router.Route("/auth", handler.Routes)
	return router
}

func TestAuthHandlersGetForm(t *testing.T) {
	forms := formServiceOver(t, func(ctx context.Context, marker string) ([]domain.FormField, error) {
		if marker != "sign_up" {
			t.Fatalf("unexpected marker %q", marker)
		}
		return []domain.FormField{
			{Marker: "email", Label: "Email", Kind: domain.FormFieldEmail, Required: true},
		}, nil
	})
	router := newAuthRouter(t, &stubSessionService{}, forms)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/form?type=signup", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Type   string `json:"type"`
		Fields []struct {
			Marker string `json:"marker"`
			Kind   string `json:"kind"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Type != "signup" || len(body.Fields) != 1 || body.Fields[0].Marker != "email" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAuthHandlersGetFormRejectsUnknownType(t *testing.T) {
	router := newAuthRouter(t, &stubSessionService{}, formServiceOver(t, nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/form?type=reset", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAuthHandlersLoginSetsCookies(t *testing.T) {
	sessions := &stubSessionService{
		loginFunc: func(ctx context.Context, values map[string]string) (services.LoginResult, error) {
			if values["email"] != "ada@example.com" {
				t.Fatalf("unexpected values %+v", values)
			}
			return services.LoginResult{
				AccessToken: "token-abc",
				User:        domain.UserIdentity{ID: "u-1", Email: "ada@example.com"},
			}, nil
		},
	}
	forms := formServiceOver(t, func(ctx context.Context, marker string) ([]domain.FormField, error) {
		return loginFields(), nil
	})
	router := newAuthRouter(t, sessions, forms)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"hunter2hunter2"}`))
	req = req.WithContext(requestctx.WithSession(req.Context(), requestctx.Session{ID: "sess-1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var tokenCookie *http.Cookie
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == "pratshop_session" {
			tokenCookie = cookie
		}
	}
	if tokenCookie == nil || tokenCookie.Value == "" {
		t.Fatalf("expected token cookie set")
	}
	if !tokenCookie.HttpOnly {
		t.Fatalf("expected HttpOnly token cookie")
	}
}

func TestAuthHandlersLoginValidationFailure(t *testing.T) {
	forms := formServiceOver(t, func(ctx context.Context, marker string) ([]domain.FormField, error) {
		return loginFields(), nil
	})
	router := newAuthRouter(t, &stubSessionService{}, forms)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"not-an-address"}`))
	req = req.WithContext(requestctx.WithSession(req.Context(), requestctx.Session{ID: "sess-1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "validation_failed" {
		t.Fatalf("expected validation_failed, got %v", body["error"])
	}
	if _, ok := body["password"]; !ok {
		t.Fatalf("expected password detail, got %+v", body)
	}
}

func TestAuthHandlersLoginRejectedCredentials(t *testing.T) {
	sessions := &stubSessionService{
		loginFunc: func(ctx context.Context, values map[string]string) (services.LoginResult, error) {
			return services.LoginResult{}, services.ErrSessionRejected
		},
	}
	forms := formServiceOver(t, func(ctx context.Context, marker string) ([]domain.FormField, error) {
		return loginFields(), nil
	})
	router := newAuthRouter(t, sessions, forms)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"hunter2hunter2"}`))
	req = req.WithContext(requestctx.WithSession(req.Context(), requestctx.Session{ID: "sess-1"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAuthHandlersSignup(t *testing.T) {
	sessions := &stubSessionService{
		signupFunc: func(ctx context.Context, values map[string]string) (services.SignupResult, error) {
			return services.SignupResult{Identifier: "ada@example.com"}, nil
		},
	}
	forms := formServiceOver(t, func(ctx context.Context, marker string) ([]domain.FormField, error) {
		if marker != "sign_up" {
			t.Fatalf("unexpected marker %q", marker)
		}
		return loginFields(), nil
	})
	router := newAuthRouter(t, sessions, forms)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"ada@example.com","password":"hunter2hunter2"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Identifier string `json:"identifier"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Identifier != "ada@example.com" {
		t.Fatalf("expected identifier, got %q", body.Identifier)
	}
}

func TestAuthHandlersLogoutClearsCookie(t *testing.T) {
	sessions := &stubSessionService{
		logoutFunc: func(ctx context.Context, accessToken string) error {
			if accessToken != "token-abc" {
				t.Fatalf("unexpected access token %q", accessToken)
			}
			return nil
		},
	}
	router := newAuthRouter(t, sessions, formServiceOver(t, nil))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(requestctx.WithSession(req.Context(), requestctx.Session{ID: "sess-1", AccessToken: "token-abc"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	cleared := false
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == "pratshop_session" && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected token cookie cleared")
	}
}

func TestAuthHandlersCurrentUser(t *testing.T) {
	sessions := &stubSessionService{
		currentUserFunc: func(ctx context.Context, accessToken string) (domain.UserIdentity, error) {
			if accessToken == "" {
				return domain.UserIdentity{}, services.ErrSessionUnauthorized
			}
			return domain.UserIdentity{ID: "u-1", Email: "ada@example.com", Name: "Ada"}, nil
		},
	}
	router := newAuthRouter(t, sessions, formServiceOver(t, nil))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(requestctx.WithSession(req.Context(), requestctx.Session{ID: "sess-1", AccessToken: "token-abc"}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	anon := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	anon = anon.WithContext(requestctx.WithSession(anon.Context(), requestctx.Session{ID: "sess-1"}))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, anon)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for anonymous, got %d", rr.Code)
	}
}
