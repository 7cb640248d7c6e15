package models

import "github.com/golang-jwt/jwt/v5"

// Role names the caller categories the booking core distinguishes.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleStaff   Role = "STAFF"
	RoleAdmin   Role = "ADMIN"
)

// JWTClaims is the identity attached by the gateway. The booking core only
// uses it for ownership and admin-override guards.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// CanOverride reports whether the caller may act on reservations they do not
// own.
func (c *JWTClaims) CanOverride() bool {
	if c == nil {
		return false
	}
	return c.Role == RoleStaff || c.Role == RoleAdmin
}
