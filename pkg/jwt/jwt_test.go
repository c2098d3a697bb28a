package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tweltz1/Project-Tracking/pkg/jwt"
)

const secret = "test-secret"

func TestGenerateYParse(t *testing.T) {
	token, err := jwt.Generate(secret, "user-1", "Alice", "project-tracking", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse(secret, "project-tracking", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "Alice", claims.Name)
}

func TestParse_SecretoIncorrecto(t *testing.T) {
	token, err := jwt.Generate(secret, "user-1", "", "", 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro", "", token)
	assert.Error(t, err)
}

func TestParse_EmisorDistinto(t *testing.T) {
	token, err := jwt.Generate(secret, "user-1", "", "otro-emisor", 5)
	require.NoError(t, err)

	_, err = jwt.Parse(secret, "project-tracking", token)
	assert.ErrorIs(t, err, gojwt.ErrTokenInvalidIssuer)
}

func TestParse_Expirado(t *testing.T) {
	token, err := jwt.Generate(secret, "user-1", "", "", -1)
	require.NoError(t, err)

	_, err = jwt.Parse(secret, "", token)
	assert.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

func TestClaims_OIDTienePrioridad(t *testing.T) {
	claims := jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "sub-1",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		OID: "oid-1",
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	parsed, err := jwt.Parse(secret, "", token)
	require.NoError(t, err)
	assert.Equal(t, "oid-1", parsed.UserID())
}

func TestGenerate_SinSecreto(t *testing.T) {
	_, err := jwt.Generate("", "user-1", "", "", 5)
	assert.Error(t, err)
}
