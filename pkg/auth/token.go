package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/homura-labs/storefront/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues the signed access cookie value using the configured TTL.
func MintAccessToken(cfg config.AccessConfig, now time.Time, grant Grant) (string, error) {
	if cfg.CookieSecret == "" {
		return "", fmt.Errorf("access cookie secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("access issuer is required")
	}
	if cfg.CookieTTL <= 0 {
		return "", fmt.Errorf("access cookie ttl must be positive")
	}
	if !grant.IsValid() {
		return "", fmt.Errorf("invalid access grant %q", grant)
	}

	claims := AccessClaims{
		Grant: grant,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.CookieTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.CookieSecret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the cookie value and returns typed claims.
func ParseAccessToken(cfg config.AccessConfig, tokenString string) (*AccessClaims, error) {
	if cfg.CookieSecret == "" {
		return nil, fmt.Errorf("access cookie secret is required")
	}

	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.CookieSecret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !claims.Grant.IsValid() {
		return nil, fmt.Errorf("invalid access grant %q", claims.Grant)
	}
	return claims, nil
}
