package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTGenerateValidate(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()
	instID := uuid.New()

	token, err := svc.Generate(userID, "meera@example.org", "participant", &instID)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "participant", claims.Role)
	require.NotNil(t, claims.InstitutionID)
	assert.Equal(t, instID, *claims.InstitutionID)
}

func TestJWTValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "x@example.org", "host", nil)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("secret", 1).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
