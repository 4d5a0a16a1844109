package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	// AuthTypeService marks tokens minted by the CLI for automation
	AuthTypeService = "service"

	// AuthTypeUser marks tokens issued to a person
	AuthTypeUser = "user"

	// DefaultTokenTTL is used when no lifetime is requested
	DefaultTokenTTL = 12 * time.Hour

	issuer = "archreview"
)

var (
	// ErrInvalidToken is returned for malformed, expired or forged tokens
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidRole is returned when a token would carry an unknown role
	ErrInvalidRole = errors.New("invalid role")

	// ErrMissingSecret is returned when no signing secret is configured
	ErrMissingSecret = errors.New("jwt secret not configured")
)

// AdminClaims are the claims of an admin API token
type AdminClaims struct {
	AdminID  string   `json:"admin_id"`
	AuthType string   `json:"auth_type"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether any of the claimed roles grants required
func (c *AdminClaims) HasRole(required Role) bool {
	for _, r := range c.Roles {
		if Role(r).HasPermission(required) {
			return true
		}
	}
	return false
}

// GenerateAdminJWT signs an HS256 token for subject with the given roles.
// Returns the token and its expiry as a unix timestamp.
func GenerateAdminJWT(secret []byte, subject, authType string, roles []string, ttl time.Duration) (string, int64, error) {
	if len(secret) == 0 {
		return "", 0, ErrMissingSecret
	}
	for _, r := range roles {
		if !Role(r).IsValid() {
			return "", 0, fmt.Errorf("%w: %q", ErrInvalidRole, r)
		}
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &AdminClaims{
		AdminID:  subject,
		AuthType: authType,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt.Unix(), nil
}

// ValidateAdminJWT verifies signature and expiry and returns the claims
func ValidateAdminJWT(tokenString string, secret []byte) (*AdminClaims, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
