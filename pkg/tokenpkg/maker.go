// Package tokenpkg creates and verifies access tokens.
package tokenpkg

import "time"

// Maker is an interface for managing tokens.
type Maker interface {
	// CreateToken creates a new token for a specific username and duration.
	CreateToken(username string, duration time.Duration) (string, *Payload, error)
	// VerifyToken checks if the token is valid or not.
	VerifyToken(token string) (*Payload, error)
}

// Token types.
const (
	TypePaseto = "paseto"
	TypeJWT    = "jwt"
)

// New returns the maker of the given token type.
func New(tokenType, secretKey string) (Maker, error) {
	if tokenType == TypeJWT {
		return NewJWTMaker(secretKey)
	}

	return NewPasetoMaker(secretKey)
}
