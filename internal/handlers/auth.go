package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/platform/httpx"
	"github.com/pratshop/storefront/internal/platform/requestctx"
	"github.com/pratshop/storefront/internal/platform/session"
	"github.com/pratshop/storefront/internal/services"
)

// AuthHandlers exposes the CMS-driven auth flows: dynamic form descriptors,
// signup, login, logout and the current-user probe.
type AuthHandlers struct {
	sessions services.SessionService
	forms    services.FormService
	manager  *session.Manager
}

const maxAuthBodySize = 16 * 1024

// NewAuthHandlers constructs the auth handlers.
func NewAuthHandlers(sessions services.SessionService, forms services.FormService, manager *session.Manager) *AuthHandlers {
	return &AuthHandlers{
		sessions: sessions,
		forms:    forms,
		manager:  manager,
	}
}

// Routes wires the /auth endpoints onto the provided router.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/form", h.getForm)
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/me", h.currentUser)
}

type formFieldPayload struct {
	Marker   string `json:"marker"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
}

func (h *AuthHandlers) getForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.forms == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service is unavailable", http.StatusServiceUnavailable))
		return
	}

	kind, err := services.ParseFormKind(r.URL.Query().Get("type"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "type must be signup or login", http.StatusBadRequest))
		return
	}

	fields, err := h.forms.Form(ctx, kind)
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}

	payload := make([]formFieldPayload, 0, len(fields))
	for _, field := range fields {
		payload = append(payload, formFieldPayload{
			Marker:   field.Marker,
			Label:    field.Label,
			Kind:     string(field.Kind),
			Required: field.Required,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"type":   string(kind),
		"fields": payload,
	})
}

func (h *AuthHandlers) signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sessions == nil || h.forms == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service is unavailable", http.StatusServiceUnavailable))
		return
	}

	values, ok := h.validatedSubmission(ctx, w, r, services.FormKindSignup)
	if !ok {
		return
	}

	result, err := h.sessions.Signup(ctx, values)
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"identifier": result.Identifier,
	})
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sessions == nil || h.forms == nil || h.manager == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service is unavailable", http.StatusServiceUnavailable))
		return
	}

	values, ok := h.validatedSubmission(ctx, w, r, services.FormKindLogin)
	if !ok {
		return
	}

	result, err := h.sessions.Login(ctx, values)
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}

	sess, ok := requestctx.SessionFromContext(ctx)
	if !ok || strings.TrimSpace(sess.ID) == "" {
		sess.ID = h.manager.NewSessionID()
		h.manager.SetSessionIDCookie(w, sess.ID)
	}
	signed, err := h.manager.IssueToken(sess.ID, result.AccessToken)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "could not establish session", http.StatusInternalServerError))
		return
	}
	h.manager.SetTokenCookie(w, signed)

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"user": buildUserPayload(result.User),
	})
}

func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sessions == nil || h.manager == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service is unavailable", http.StatusServiceUnavailable))
		return
	}

	sess, _ := requestctx.SessionFromContext(ctx)
	if err := h.sessions.Logout(ctx, sess.AccessToken); err != nil {
		writeAuthError(ctx, w, err)
		return
	}
	h.manager.ClearTokenCookie(w)
	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

func (h *AuthHandlers) currentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sessions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service is unavailable", http.StatusServiceUnavailable))
		return
	}

	sess, _ := requestctx.SessionFromContext(ctx)
	user, err := h.sessions.CurrentUser(ctx, sess.AccessToken)
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"user": buildUserPayload(user)})
}

// validatedSubmission fetches the form descriptors for the kind and runs the
// submitted values through generic validation. Validation failures are
// written as a 422 with per-field details.
func (h *AuthHandlers) validatedSubmission(ctx context.Context, w http.ResponseWriter, r *http.Request, kind services.FormKind) (map[string]string, bool) {
	body, err := readLimitedBody(r, maxAuthBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return nil, false
	}

	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return nil, false
	}

	fields, err := h.forms.Form(ctx, kind)
	if err != nil {
		writeAuthError(ctx, w, err)
		return nil, false
	}

	values, failures := h.forms.ValidateSubmission(fields, raw)
	if len(failures) > 0 {
		details := make(map[string]any, len(failures))
		for _, failure := range failures {
			details[failure.Marker] = failure.Message
		}
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", "submitted values failed validation", http.StatusUnprocessableEntity).WithDetails(details))
		return nil, false
	}
	return values, true
}

func buildUserPayload(user domain.UserIdentity) map[string]any {
	payload := map[string]any{
		"id":    user.ID,
		"email": user.Email,
	}
	if user.Name != "" {
		payload["name"] = user.Name
	}
	return payload
}

func writeAuthError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSessionRejected):
		httpx.WriteError(ctx, w, httpx.NewError("auth_rejected", rejectionDetail(err), http.StatusBadRequest))
	case errors.Is(err, services.ErrSessionUnauthorized):
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
	case errors.Is(err, services.ErrSessionUnavailable), errors.Is(err, services.ErrFormUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "auth backend is unavailable", http.StatusBadGateway))
	case errors.Is(err, services.ErrFormUnknownKind):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "type must be signup or login", http.StatusBadRequest))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("request_timeout", "request cancelled", httpStatusClientClosed))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

func rejectionDetail(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 && idx+2 < len(msg) {
		return msg[idx+2:]
	}
	return "the request was rejected"
}
