package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claims structure for studypipe sessions. It embeds
// jwt.RegisteredClaims for the standard fields (exp, iat, etc.) and adds
// the user identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}
