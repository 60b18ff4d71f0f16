package jwtauth

import "github.com/golang-jwt/jwt/v5"

// Claims is the token body: {username, isAdmin} plus registered claims.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}
