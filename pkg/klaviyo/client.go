package klaviyo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/homura-labs/storefront/pkg/config"
	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/metrics"
)

const (
	serviceName                 = "klaviyo"
	defaultBaseURL              = "https://a.klaviyo.com/api"
	defaultRevision             = "2025-01-15"
	jsonAPIMediaType            = "application/vnd.api+json"
	duplicateProfileCode        = "duplicate_profile"
	responseBodyReadLimit int64 = 4096
)

var errAPIKeyRequired = errors.New("klaviyo api key is required")

// StatusError carries a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// Client wraps the profile and list endpoints used for newsletter signup.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	revision   string
	timeout    time.Duration
	metrics    *metrics.RemoteCallMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithMetrics records every call on the supplied metrics.
func WithMetrics(m *metrics.RemoteCallMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the Klaviyo client from configuration.
func NewClient(cfg config.KlaviyoConfig, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	client := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		apiKey:     key,
		revision:   strings.TrimSpace(cfg.Revision),
		timeout:    cfg.RequestTimeout,
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.revision == "" {
		client.revision = defaultRevision
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Profile is the subset of profile attributes the storefront collects.
type Profile struct {
	Email       string
	PhoneNumber string
	Country     string
}

type profileRequest struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			Email       string         `json:"email"`
			PhoneNumber string         `json:"phone_number,omitempty"`
			Properties  map[string]any `json:"properties"`
		} `json:"attributes"`
	} `json:"data"`
}

type profileResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type errorResponse struct {
	Errors []struct {
		Code string `json:"code"`
		Meta struct {
			DuplicateProfileID string `json:"duplicate_profile_id"`
		} `json:"meta"`
	} `json:"errors"`
}

// CreateProfile registers a profile and returns its id. An existing profile
// for the same email is not an error: its id is returned with existing=true.
func (c *Client) CreateProfile(ctx context.Context, p Profile) (id string, existing bool, err error) {
	var body profileRequest
	body.Data.Type = "profile"
	body.Data.Attributes.Email = p.Email
	body.Data.Attributes.PhoneNumber = p.PhoneNumber
	props := map[string]any{"first_name": "", "last_name": ""}
	if p.Country != "" {
		props["country"] = p.Country
	}
	body.Data.Attributes.Properties = props

	status, raw, err := c.post(ctx, "create_profile", "profiles/", body)
	if err != nil {
		return "", false, err
	}

	if status >= 200 && status < 300 {
		var resp profileResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode profile response")
		}
		return resp.Data.ID, false, nil
	}

	if status == http.StatusConflict {
		var resp errorResponse
		if json.Unmarshal(raw, &resp) == nil && len(resp.Errors) > 0 && resp.Errors[0].Code == duplicateProfileCode {
			return resp.Errors[0].Meta.DuplicateProfileID, true, nil
		}
	}
	return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, &StatusError{StatusCode: status, Body: string(raw)}, "create profile failed")
}

// AddProfileToList subscribes an existing profile to a list.
func (c *Client) AddProfileToList(ctx context.Context, listID, profileID string) error {
	if strings.TrimSpace(listID) == "" || strings.TrimSpace(profileID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "list id and profile id are required")
	}
	body := map[string]any{
		"data": []map[string]string{{"type": "profile", "id": profileID}},
	}
	status, raw, err := c.post(ctx, "add_profile_to_list", fmt.Sprintf("lists/%s/relationships/profiles", listID), body)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, &StatusError{StatusCode: status, Body: string(raw)}, "add profile to list failed")
	}
	return nil
}

func (c *Client) post(ctx context.Context, operation, path string, payload any) (status int, body []byte, err error) {
	if c == nil {
		return 0, nil, pkgerrors.New(pkgerrors.CodeDependency, "klaviyo client not configured")
	}

	start := time.Now()
	defer func() {
		callErr := err
		if callErr == nil && status >= 300 && status != http.StatusConflict {
			callErr = &StatusError{StatusCode: status}
		}
		c.metrics.Observe(serviceName, operation, time.Since(start), callErr)
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+operation+" request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+operation+" request")
	}
	httpReq.Header.Set("Authorization", "Klaviyo-API-Key "+c.apiKey)
	httpReq.Header.Set("Accept", jsonAPIMediaType)
	httpReq.Header.Set("Content-Type", jsonAPIMediaType)
	httpReq.Header.Set("revision", c.revision)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+operation+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return resp.StatusCode, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+operation+" response")
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
