package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Claims are the JWT claims attached to authenticated requests.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
