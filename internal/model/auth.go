package model

import "github.com/golang-jwt/jwt/v5"

// AdminClaims are JWT claims for dashboard users
type AdminClaims struct {
	UserID string `json:"userId"`
	Admin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
