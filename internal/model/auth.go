package model

import "github.com/golang-jwt/jwt/v5"

// StudentClaims is the principal resolved from the bearer token issued by the
// identity provider.
type StudentClaims struct {
	StudentID string `json:"studentId"`
	Username  string `json:"username"`
	Class     string `json:"class"`
	jwt.RegisteredClaims
}
