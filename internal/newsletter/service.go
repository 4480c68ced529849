package newsletter

import (
	"context"
	stdErrors "errors"
	"strings"

	"github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/klaviyo"
	"github.com/homura-labs/storefront/pkg/logger"
)

const (
	opCreateProfile = "create_profile"
	opAddToList     = "add_to_list"
)

// ErrNotConfigured is returned when no marketing credentials are configured.
var ErrNotConfigured = errors.New(errors.CodeDependency, "newsletter service not configured")

// Marketing is the subset of the marketing platform the signup flow needs.
type Marketing interface {
	CreateProfile(ctx context.Context, p klaviyo.Profile) (string, bool, error)
	AddProfileToList(ctx context.Context, listID, profileID string) error
}

type Request struct {
	Email   string
	Phone   string
	Country string
}

type Result struct {
	ProfileID string
	Existing  bool
	Phone     string
}

type Service interface {
	Subscribe(ctx context.Context, req Request) (Result, error)
}

type service struct {
	marketing Marketing
	listID    string
	logg      *logger.Logger
}

// NewService builds the signup flow. A nil marketing client or empty list id
// yields a service that reports ErrNotConfigured.
func NewService(marketing Marketing, listID string, logg *logger.Logger) Service {
	return &service{marketing: marketing, listID: strings.TrimSpace(listID), logg: logg}
}

func (s *service) Subscribe(ctx context.Context, req Request) (Result, error) {
	email := strings.TrimSpace(req.Email)
	if !strings.Contains(email, "@") {
		return Result{}, errors.New(errors.CodeValidation, "Valid email is required")
	}
	if s.marketing == nil || s.listID == "" {
		return Result{}, ErrNotConfigured
	}

	phone := NormalizePhone(req.Phone, req.Country)
	if s.logg != nil && req.Phone != "" && phone == "" {
		s.logg.Warn(s.logg.WithField(ctx, "country", req.Country), "newsletter.phone_dropped")
	}

	profileID, existing, err := s.marketing.CreateProfile(ctx, klaviyo.Profile{
		Email:       email,
		PhoneNumber: phone,
		Country:     strings.TrimSpace(req.Country),
	})
	if err != nil {
		return Result{}, upstreamError(opCreateProfile, err)
	}
	if existing && s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "profile_id", profileID), "newsletter.profile_exists")
	}

	if err := s.marketing.AddProfileToList(ctx, s.listID, profileID); err != nil {
		return Result{}, upstreamError(opAddToList, err)
	}
	return Result{ProfileID: profileID, Existing: existing, Phone: phone}, nil
}

func upstreamError(operation string, err error) error {
	details := map[string]any{"operation": operation}
	var statusErr *klaviyo.StatusError
	if operation == opCreateProfile && stdErrors.As(err, &statusErr) {
		details["response"] = statusErr.Body
	}
	return errors.Wrap(errors.CodeDependency, err, "Failed to subscribe to newsletter").WithDetails(details)
}

// UpstreamResponse returns the raw upstream body attached to a failed profile
// creation, if any.
func UpstreamResponse(err error) (string, bool) {
	typed := errors.As(err)
	if typed == nil {
		return "", false
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return "", false
	}
	body, ok := details["response"].(string)
	return body, ok
}
