// Package auth extracts the already-authorized caller identity from JWTs
// issued by the external auth gateway. This core never issues credentials
// and never evaluates permissions; it only needs to know who is calling.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
)

// Claims is the JWT claims structure issued by the auth gateway.
// RegisteredClaims carries the standard fields (sub, iss, exp); the custom
// claims identify the caller within the organization.
type Claims struct {
	jwt.RegisteredClaims
	Name         string `json:"name,omitempty"`
	Role         string `json:"role,omitempty"`
	CompanyID    string `json:"cid,omitempty"`
	DepartmentID string `json:"did,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}
