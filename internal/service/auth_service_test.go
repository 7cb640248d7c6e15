package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-booking-api/internal/models"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService("booking-secret", nil)
	claims := models.JWTClaims{
		UserID: "stu-1",
		Role:   models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	got, err := svc.ValidateToken(signToken(t, "booking-secret", claims))
	require.NoError(t, err)
	assert.Equal(t, "stu-1", got.UserID)
	assert.Equal(t, models.RoleStudent, got.Role)
	assert.False(t, got.CanOverride())
}

func TestValidateTokenRejectsBadSignature(t *testing.T) {
	svc := NewAuthService("booking-secret", nil)
	claims := models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}

	_, err := svc.ValidateToken(signToken(t, "other-secret", claims))
	require.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService("booking-secret", nil)
	claims := models.JWTClaims{
		UserID: "staff-1",
		Role:   models.RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}

	_, err := svc.ValidateToken(signToken(t, "booking-secret", claims))
	require.Error(t, err)
}
