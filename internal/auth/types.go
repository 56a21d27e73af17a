// Package auth implements the single-operator authentication layer: bcrypt
// password verification, HS256 JWT issuance and validation, and the gin
// middleware that guards the API surface.
package auth

// AuthError is a machine-readable authentication failure
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e AuthError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials = AuthError{Code: "INVALID_CREDENTIALS", Message: "invalid username or password"}
	ErrInvalidToken       = AuthError{Code: "INVALID_TOKEN", Message: "invalid or malformed token"}
	ErrTokenExpired       = AuthError{Code: "TOKEN_EXPIRED", Message: "token has expired"}
	ErrUnauthorized       = AuthError{Code: "UNAUTHORIZED", Message: "authentication required"}
)

// UserClaims is the identity carried inside an access token
type UserClaims struct {
	Username string `json:"username"`
}

// TokenResponse is the login endpoint's payload
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}
