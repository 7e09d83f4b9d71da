package auth

import (
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload carries the identity minted into a terminal session token.
type AccessTokenPayload struct {
	UserID string
	Name   string
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims is the JWT claim set used by the terminal API.
type AccessTokenClaims struct {
	UserID string         `json:"uid"`
	Name   string         `json:"name"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
