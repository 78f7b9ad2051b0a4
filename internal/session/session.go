// Package session derives the authenticated-or-guest flag from the bearer
// credential minted by the auth service. The gateway only observes identity;
// it never issues or refreshes tokens.
package session

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Identity struct {
	Authenticated bool
	UserID        string
	Token         string
}

// Guest is the identity of a visitor with no usable credential.
var Guest = Identity{}

// Resolve parses tokenStr as an HS256 access token. Anything that does not
// verify, including an expired token, resolves to a guest: the storefront
// degrades to local state instead of failing the request.
func Resolve(tokenStr string, secret []byte) Identity {
	if tokenStr == "" {
		return Guest
	}

	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return Guest
	}

	return Identity{
		Authenticated: true,
		UserID:        claims.Subject,
		Token:         tokenStr,
	}
}
