package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT claim set issued by the HTTP API.
//
// The standard "sub" claim holds the user ID; IsAdmin caches the role so the
// server does not have to consult the catalog on every request.
type Claims struct {
	jwt.RegisteredClaims

	// IsAdmin mirrors [User.IsAdmin] at the time the token was issued.
	IsAdmin bool `json:"adm"`
}

// Token wraps a JWT token with convenience accessors for authentication flows.
//
// It embeds [jwt.Token] for low-level token operations (signing, parsing).
// SignedString holds the compact serialized form of the token
// (header.payload.signature) ready to be transmitted in HTTP headers.
type Token struct {
	// Token is the underlying JWT token used for signing and claim inspection.
	*jwt.Token `json:"-"`

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"-"`

	// UserID is the owner identifier extracted from the "sub" claim.
	UserID string `json:"-"`

	// IsAdmin is the role extracted from the "adm" claim.
	IsAdmin bool `json:"-"`
}

// String returns the compact JWS serialization of the token.
// It implements the [fmt.Stringer] interface.
func (t *Token) String() string {
	return t.SignedString
}
