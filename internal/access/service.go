package access

import (
	"context"
	"strings"
	"time"

	"github.com/homura-labs/storefront/pkg/auth"
	"github.com/homura-labs/storefront/pkg/config"
	"github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/logger"
	"github.com/homura-labs/storefront/pkg/security"
)

// Pass is a signed access cookie value.
type Pass struct {
	Token     string
	ExpiresAt time.Time
}

type Service interface {
	Enabled() bool
	Unlock(ctx context.Context, password string) (Pass, error)
	Grant(ctx context.Context, grant auth.Grant) (Pass, error)
	Verify(token string) bool
}

type service struct {
	cfg  config.AccessConfig
	logg *logger.Logger
	now  func() time.Time
}

func NewService(cfg config.AccessConfig, logg *logger.Logger) Service {
	return &service{cfg: cfg, logg: logg, now: time.Now}
}

func (s *service) Enabled() bool {
	return s.cfg.Enabled()
}

// Unlock checks the shared storefront password and issues a pass.
func (s *service) Unlock(ctx context.Context, password string) (Pass, error) {
	if !s.Enabled() {
		return Pass{}, errors.New(errors.CodeDependency, "access gate disabled")
	}
	if strings.TrimSpace(s.cfg.PasswordHash) == "" {
		return Pass{}, errors.New(errors.CodeDependency, "access password not configured")
	}
	if password == "" {
		return Pass{}, errors.New(errors.CodeValidation, "password is required")
	}

	ok, err := security.VerifyPassword(password, s.cfg.PasswordHash)
	if err != nil {
		return Pass{}, errors.Wrap(errors.CodeInternal, err, "verify access password")
	}
	if !ok {
		if s.logg != nil {
			s.logg.Warn(ctx, "access.unlock.rejected")
		}
		return Pass{}, errors.New(errors.CodeUnauthorized, "Incorrect password")
	}
	return s.Grant(ctx, auth.GrantPassword)
}

// Grant issues a pass without a password, e.g. after an early-access signup.
func (s *service) Grant(ctx context.Context, grant auth.Grant) (Pass, error) {
	if !s.Enabled() {
		return Pass{}, errors.New(errors.CodeDependency, "access gate disabled")
	}
	now := s.now().UTC()
	token, err := auth.MintAccessToken(s.cfg, now, grant)
	if err != nil {
		return Pass{}, errors.Wrap(errors.CodeInternal, err, "mint access token")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "grant", string(grant)), "access.granted")
	}
	return Pass{Token: token, ExpiresAt: now.Add(s.cfg.CookieTTL)}, nil
}

// Verify reports whether a cookie value is a valid, unexpired pass.
func (s *service) Verify(token string) bool {
	if !s.Enabled() || strings.TrimSpace(token) == "" {
		return false
	}
	_, err := auth.ParseAccessToken(s.cfg, token)
	return err == nil
}
