package shopify

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
	serviceName                 = "shopify"
	accessTokenHeader           = "X-Shopify-Storefront-Access-Token"
	defaultAPIVersion           = "2025-01"
	responseBodyReadLimit int64 = 1024
)

var (
	errStoreDomainRequired = errors.New("shopify store domain is required")
	errTokenRequired       = errors.New("shopify storefront access token is required")
)

// Client issues typed Storefront GraphQL operations. A single attempt is made
// per call; the per-call timeout comes from configuration.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
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

// WithEndpoint overrides the GraphQL endpoint derived from the store domain.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(endpoint)
		if trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// WithMetrics records every call on the supplied metrics.
func WithMetrics(m *metrics.RemoteCallMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient validates the credentials and builds the Storefront client.
func NewClient(cfg config.ShopifyConfig, opts ...Option) (*Client, error) {
	domain := strings.TrimSpace(cfg.StoreDomain)
	if domain == "" {
		return nil, errStoreDomainRequired
	}
	token := strings.TrimSpace(cfg.StorefrontToken)
	if token == "" {
		return nil, errTokenRequired
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}

	client := &Client{
		httpClient: &http.Client{},
		endpoint:   endpointFor(domain, version),
		token:      token,
		timeout:    cfg.RequestTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	return client, nil
}

func endpointFor(domain, version string) string {
	domain = strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
	domain = strings.TrimRight(domain, "/")
	return fmt.Sprintf("https://%s/api/%s/graphql.json", domain, version)
}

// Configured reports whether the client can reach the platform.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) execute(ctx context.Context, operation, query string, variables map[string]any, out any) (err error) {
	if !c.Configured() {
		return pkgerrors.New(pkgerrors.CodeDependency, "shopify client not configured")
	}

	start := time.Now()
	defer func() { c.metrics.Observe(serviceName, operation, time.Since(start), err) }()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(graphQLRequest{Query: query, OperationName: operation, Variables: variables})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+operation+" request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+operation+" request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(accessTokenHeader, c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+operation+" request").
			WithDetails(map[string]any{"operation": operation})
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), operation+" request failed").
			WithDetails(map[string]any{"operation": operation, "status": resp.StatusCode})
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+operation+" response")
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New(strings.Join(messages, "; ")), operation+" returned errors").
			WithDetails(map[string]any{"operation": operation})
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return pkgerrors.New(pkgerrors.CodeDependency, operation+" returned no data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+operation+" data")
	}
	return nil
}

// cartFromPayload applies the mutation contract: a cart or user errors, and
// never neither.
func cartFromPayload(operation string, payload cartPayload) (*Cart, error) {
	if len(payload.UserErrors) > 0 {
		messages := make([]string, 0, len(payload.UserErrors))
		for _, ue := range payload.UserErrors {
			messages = append(messages, ue.Message)
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, operation+": "+strings.Join(messages, "; ")).
			WithDetails(map[string]any{"operation": operation, "user_errors": payload.UserErrors})
	}
	if payload.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, operation+" returned no cart").
			WithDetails(map[string]any{"operation": operation})
	}
	return payload.Cart.toCart(), nil
}
