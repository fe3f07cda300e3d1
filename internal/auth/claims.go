package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the operator access token shape. Callers never get tokens;
// they are identified by the telephony provider's call id.
type Claims struct {
	jwt.RegisteredClaims

	OperatorID string `json:"operator_id"`
	Role       string `json:"role"`
}
