package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pratshop/storefront/internal/domain"
	"github.com/pratshop/storefront/internal/oneentry"
)

// FormKind selects which CMS-defined auth form to fetch.
type FormKind string

const (
	FormKindSignup FormKind = "signup"
	FormKindLogin  FormKind = "login"
)

// CMS form markers the two auth forms live under.
const (
	signupFormMarker = "sign_up"
	loginFormMarker  = "sign_in"
)

// FieldError reports a single validation failure keyed by the field marker.
type FieldError struct {
	Marker  string `json:"marker"`
	Message string `json:"message"`
}

var (
	errFormGatewayRequired = errors.New("form service: gateway is required")

	// ErrFormUnknownKind indicates a form kind outside signup and login.
	ErrFormUnknownKind = errors.New("form service: unknown form kind")
	// ErrFormUnavailable indicates the CMS could not serve the form.
	ErrFormUnavailable = errors.New("form service: unavailable")

	minPasswordLength = 8
)

// FormGateway is the slice of the CMS client form fetches go through.
type FormGateway interface {
	Form(ctx context.Context, marker string) ([]domain.FormField, error)
}

// FormServiceDeps wires the CMS gateway into the form service.
type FormServiceDeps struct {
	Gateway FormGateway
}

type formService struct {
	gateway FormGateway
}

// NewFormService constructs a FormService.
func NewFormService(deps FormServiceDeps) (FormService, error) {
	if deps.Gateway == nil {
		return nil, errFormGatewayRequired
	}
	return &formService{gateway: deps.Gateway}, nil
}

// Form fetches the ordered field descriptors for the signup or login form.
func (s *formService) Form(ctx context.Context, kind FormKind) ([]domain.FormField, error) {
	marker, err := markerFor(kind)
	if err != nil {
		return nil, err
	}
	fields, err := s.gateway.Form(ctx, marker)
	if err != nil {
		if errors.Is(err, oneentry.ErrUnavailable) || errors.Is(err, oneentry.ErrNotFound) {
			return nil, ErrFormUnavailable
		}
		return nil, err
	}
	if fields == nil {
		fields = []domain.FormField{}
	}
	return fields, nil
}

// ValidateSubmission checks the submitted values against the field
// descriptors. It returns the normalized values for the known markers and
// any per-field failures. Values for markers the form does not declare are
// dropped.
func (s *formService) ValidateSubmission(fields []domain.FormField, values map[string]string) (map[string]string, []FieldError) {
	normalized := make(map[string]string, len(fields))
	var failures []FieldError

	for _, field := range fields {
		value := values[field.Marker]
		if field.Kind != domain.FormFieldPassword {
			value = strings.TrimSpace(value)
		}

		if value == "" {
			if field.Required {
				failures = append(failures, FieldError{
					Marker:  field.Marker,
					Message: fmt.Sprintf("%s is required", field.Label),
				})
			}
			continue
		}

		switch field.Kind {
		case domain.FormFieldEmail:
			if _, err := mail.ParseAddress(value); err != nil {
				failures = append(failures, FieldError{
					Marker:  field.Marker,
					Message: fmt.Sprintf("%s must be a valid email address", field.Label),
				})
				continue
			}
			value = strings.ToLower(value)
		case domain.FormFieldPassword:
			if len(value) < minPasswordLength {
				failures = append(failures, FieldError{
					Marker:  field.Marker,
					Message: fmt.Sprintf("%s must be at least %d characters", field.Label, minPasswordLength),
				})
				continue
			}
		}
		normalized[field.Marker] = value
	}

	if len(failures) > 0 {
		return nil, failures
	}
	return normalized, nil
}

func markerFor(kind FormKind) (string, error) {
	switch kind {
	case FormKindSignup:
		return signupFormMarker, nil
	case FormKindLogin:
		return loginFormMarker, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormUnknownKind, kind)
	}
}

// ParseFormKind maps the query-string value onto a FormKind.
func ParseFormKind(raw string) (FormKind, error) {
	switch FormKind(strings.ToLower(strings.TrimSpace(raw))) {
	case FormKindSignup:
		return FormKindSignup, nil
	case FormKindLogin, "":
		return FormKindLogin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormUnknownKind, raw)
	}
}
