// Package oneentry is a thin HTTP client for the headless commerce CMS that
// supplies the storefront's catalog, search, auth forms and user sessions.
// Every call takes a context and aborts with it, so abandoning a request
// cancels the upstream fetch.
package oneentry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pratshop/storefront/internal/domain"
)

const (
	defaultTimeout     = 10 * time.Second
	maxResponseBody    = 4 * 1024 * 1024
	appTokenHeader     = "x-app-token"
	bearerPrefix       = "Bearer "
	authProviderMarker = "email"
)

var (
	// ErrUnavailable indicates the CMS could not be reached or answered 5xx.
	ErrUnavailable = errors.New("oneentry: unavailable")
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("oneentry: not found")
	// ErrUnauthorized indicates the access token is missing, expired or revoked.
	ErrUnauthorized = errors.New("oneentry: unauthorized")
	// ErrRejected indicates the CMS rejected the submission (bad credentials,
	// duplicate signup, invalid field values). The message is user-facing.
	ErrRejected = errors.New("oneentry: rejected")
)

// Config carries the CMS endpoint credentials.
type Config struct {
	BaseURL  string
	AppToken string
	Timeout  time.Duration
}

// Client talks to the CMS project API.
type Client struct {
	baseURL  *url.URL
	appToken string
	http     *http.Client
}

// NewClient validates the endpoint configuration and builds a client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("oneentry: base URL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("oneentry: invalid base URL %q", base)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  parsed,
		appToken: strings.TrimSpace(cfg.AppToken),
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// ListCatalogs fetches every catalog page with its products, validated into
// the typed section shape.
func (c *Client) ListCatalogs(ctx context.Context) ([]domain.CatalogSection, error) {
	var out []catalogEntity
	if err := c.get(ctx, "/api/content/pages/catalogs", nil, "", &out); err != nil {
		return nil, err
	}
	sections := make([]domain.CatalogSection, 0, len(out))
	for _, entity := range out {
		sections = append(sections, entity.Section())
	}
	return sections, nil
}

// GetProduct fetches one product by id. The description fragment is the raw
// CMS HTML; sanitisation is the catalog service's job.
func (c *Client) GetProduct(ctx context.Context, productID string) (domain.ProductDetail, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.ProductDetail{}, fmt.Errorf("%w: product id is required", ErrNotFound)
	}
	var out productEntity
	if err := c.get(ctx, "/api/content/products/"+url.PathEscape(productID), nil, "", &out); err != nil {
		return domain.ProductDetail{}, err
	}
	return out.Detail(), nil
}

// ProductsByPage fetches the products attached to a catalog page.
func (c *Client) ProductsByPage(ctx context.Context, pageID string) ([]domain.ProductSummary, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return nil, fmt.Errorf("%w: page id is required", ErrNotFound)
	}
	var out struct {
		Items []productEntity `json:"items"`
	}
	if err := c.get(ctx, "/api/content/pages/"+url.PathEscape(pageID)+"/products", nil, "", &out); err != nil {
		return nil, err
	}
	return summaries(out.Items), nil
}

// Search returns products matching the free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.ProductSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.ProductSummary{}, nil
	}
	params := url.Values{"name": {query}}
	var out []productEntity
	if err := c.get(ctx, "/api/content/products/quick/search", params, "", &out); err != nil {
		return nil, err
	}
	return summaries(out), nil
}

// Form fetches the ordered field descriptors for a CMS form marker
// (e.g. "sign_up", "sign_in"). The field set is remote data, not code.
func (c *Client) Form(ctx context.Context, marker string) ([]domain.FormField, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return nil, fmt.Errorf("%w: form marker is required", ErrNotFound)
	}
	var out struct {
		Attributes []formAttributeEntity `json:"attributes"`
	}
	if err := c.get(ctx, "/api/content/forms/"+url.PathEscape(marker), nil, "", &out); err != nil {
		return nil, err
	}
	fields := make([]domain.FormField, 0, len(out.Attributes))
	for _, attr := range out.Attributes {
		field := attr.Field()
		if field.Marker == "" {
			continue
		}
		fields = append(fields, field)
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Position < fields[j].Position })
	return fields, nil
}

// Signup submits marker/value pairs to the auth provider and returns the
// created user's identifier.
func (c *Client) Signup(ctx context.Context, values map[string]string) (string, error) {
	payload := signupRequest{
		Method:     authProviderMarker,
		FormData:   formDataFromValues(values),
		Email:      values["email"],
		Password:   values["password"],
		Notifemail: values["email"],
	}
	var out struct {
		Identifier string `json:"identifier"`
	}
	if err := c.post(ctx, "/api/auth-provider/"+authProviderMarker+"/sign-up", payload, "", &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Identifier) == "" {
		return "", fmt.Errorf("%w: signup response missing identifier", ErrRejected)
	}
	return out.Identifier, nil
}

// Login exchanges credentials for a CMS access token.
func (c *Client) Login(ctx context.Context, values map[string]string) (string, error) {
	payload := loginRequest{
		Method:   authProviderMarker,
		Login:    values["email"],
		Password: values["password"],
	}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.post(ctx, "/api/auth-provider/"+authProviderMarker+"/auth", payload, "", &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", fmt.Errorf("%w: login response missing access token", ErrRejected)
	}
	return out.AccessToken, nil
}

// CurrentUser resolves the authenticated user for an access token.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (domain.UserIdentity, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return domain.UserIdentity{}, ErrUnauthorized
	}
	var out userEntity
	if err := c.get(ctx, "/api/users/me", nil, accessToken, &out); err != nil {
		return domain.UserIdentity{}, err
	}
	return out.Identity(), nil
}

// Logout invalidates the CMS session for the access token. A missing token
// is a no-op; the storefront cookie is cleared regardless.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil
	}
	return c.post(ctx, "/api/auth-provider/"+authProviderMarker+"/logout", struct{}{}, accessToken, nil)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, accessToken string, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, accessToken, out)
}

func (c *Client) post(ctx context.Context, path string, body any, accessToken string, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("oneentry: encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, encoded, accessToken, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, accessToken string, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	if params != nil {
		endpoint.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("oneentry: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.appToken != "" {
		req.Header.Set(appTokenHeader, c.appToken)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", bearerPrefix+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrRejected, rejectionMessage(payload))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

// rejectionMessage extracts the CMS error text for user display.
func rejectionMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if msg := strings.TrimSpace(body.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return msg
		}
	}
	return "request rejected"
}

type signupRequest struct {
	Method     string          `json:"authProviderMarker"`
	FormData   []formDataEntry `json:"formData"`
	Email      string          `json:"email"`
	Password   string          `json:"password"`
	Notifemail string          `json:"notificationEmail,omitempty"`
}

type loginRequest struct {
	Method   string `json:"authProviderMarker"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

type formDataEntry struct {
	Marker string `json:"marker"`
	Value  string `json:"value"`
}

func summaries(items []productEntity) []domain.ProductSummary {
	out := make([]domain.ProductSummary, 0, len(items))
	for _, item := range items {
		if item.ID.IsZero() {
			continue
		}
		out = append(out, item.Summary())
	}
	return out
}

func formDataFromValues(values map[string]string) []formDataEntry {
	out := make([]formDataEntry, 0, len(values))
	for marker, value := range values {
		marker = strings.TrimSpace(marker)
		if marker == "" {
			continue
		}
		out = append(out, formDataEntry{Marker: marker, Value: value})
	}
	return out
}
