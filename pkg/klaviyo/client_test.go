package klaviyo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/homura-labs/storefront/pkg/config"
	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(config.KlaviyoConfig{APIKey: "pk_test", Revision: "2025-01-15"},
		WithBaseURL("http://klaviyo.test/api"),
		WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(config.KlaviyoConfig{}); !errors.Is(err, errAPIKeyRequired) {
		t.Fatalf("expected errAPIKeyRequired, got %v", err)
	}
}

func TestCreateProfileRequest(t *testing.T) {
	var capturedURL string
	var capturedHeaders http.Header
	var payload map[string]any

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return respond(http.StatusCreated, `{"data":{"type":"profile","id":"01PROFILE"}}`), nil
	})

	id, existing, err := client.CreateProfile(context.Background(), Profile{Email: "a@b.com", PhoneNumber: "+15551234567", Country: "US"})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if id != "01PROFILE" || existing {
		t.Fatalf("unexpected result id=%q existing=%v", id, existing)
	}
	if capturedURL != "http://klaviyo.test/api/profiles/" {
		t.Fatalf("unexpected url %q", capturedURL)
	}
	if got := capturedHeaders.Get("Authorization"); got != "Klaviyo-API-Key pk_test" {
		t.Fatalf("unexpected authorization %q", got)
	}
	if got := capturedHeaders.Get("revision"); got != "2025-01-15" {
		t.Fatalf("unexpected revision %q", got)
	}
	if got := capturedHeaders.Get("Content-Type"); got != jsonAPIMediaType {
		t.Fatalf("unexpected content type %q", got)
	}

	attrs := payload["data"].(map[string]any)["attributes"].(map[string]any)
	if attrs["email"] != "a@b.com" || attrs["phone_number"] != "+15551234567" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
	props := attrs["properties"].(map[string]any)
	if props["country"] != "US" || props["first_name"] != "" {
		t.Fatalf("unexpected properties %v", props)
	}
}

func TestCreateProfileOmitsEmptyPhone(t *testing.T) {
	var raw []byte
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		raw, _ = io.ReadAll(req.Body)
		return respond(http.StatusCreated, `{"data":{"id":"p"}}`), nil
	})

	if _, _, err := client.CreateProfile(context.Background(), Profile{Email: "a@b.com"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if strings.Contains(string(raw), "phone_number") || strings.Contains(string(raw), "country") {
		t.Fatalf("empty optional fields should be omitted: %s", raw)
	}
}

func TestCreateProfileDuplicateIsSuccess(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusConflict, `{"errors":[{"code":"duplicate_profile","meta":{"duplicate_profile_id":"01EXISTING"}}]}`), nil
	})

	id, existing, err := client.CreateProfile(context.Background(), Profile{Email: "a@b.com"})
	if err != nil {
		t.Fatalf("duplicate should not fail: %v", err)
	}
	if id != "01EXISTING" || !existing {
		t.Fatalf("unexpected result id=%q existing=%v", id, existing)
	}
}

func TestCreateProfileOtherConflictFails(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusConflict, `{"errors":[{"code":"something_else"}]}`), nil
	})

	_, _, err := client.CreateProfile(context.Background(), Profile{Email: "a@b.com"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected wrapped StatusError, got %v", err)
	}
}

func TestAddProfileToList(t *testing.T) {
	var capturedURL string
	var body struct {
		Data []struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		} `json:"data"`
	}
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return respond(http.StatusNoContent, ``), nil
	})

	if err := client.AddProfileToList(context.Background(), "LIST1", "01PROFILE"); err != nil {
		t.Fatalf("add to list: %v", err)
	}
	if capturedURL != "http://klaviyo.test/api/lists/LIST1/relationships/profiles" {
		t.Fatalf("unexpected url %q", capturedURL)
	}
	if len(body.Data) != 1 || body.Data[0].ID != "01PROFILE" || body.Data[0].Type != "profile" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAddProfileToListFailure(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusBadRequest, `{"errors":[{"detail":"bad list"}]}`), nil
	})

	err := client.AddProfileToList(context.Background(), "LIST1", "01PROFILE")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
