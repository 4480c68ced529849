package auth

import "github.com/golang-jwt/jwt/v5"

// Grant records how a visitor obtained storefront access.
type Grant string

const (
	GrantPassword   Grant = "password"
	GrantNewsletter Grant = "newsletter"
)

func (g Grant) IsValid() bool {
	switch g {
	case GrantPassword, GrantNewsletter:
		return true
	default:
		return false
	}
}

// AccessClaims is the payload of the storefront access cookie.
type AccessClaims struct {
	Grant Grant `json:"grant"`
	jwt.RegisteredClaims
}
