package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/identity"
	pkgjwt "github.com/Tweltz1/Project-Tracking/pkg/jwt"
)

const (
	testKeyID    = "test-key"
	testIssuer   = "https://login.example.com/tenant/v2.0"
	testAudience = "project-tracking-api"
)

// buildJWKSetJSON arma el JWKS público de la clave RSA.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": kid,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	data, _ := json.Marshal(jwks)
	return data
}

func newOIDC(t *testing.T) (*identity.OIDCVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	require.NoError(t, err)
	return identity.NewOIDCVerifierWithKeyfunc(kf, testIssuer, testAudience), key
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "sub-123",
		"name": "Alice",
		"iss":  testIssuer,
		"aud":  testAudience,
		"exp":  jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"iat":  jwt.NewNumericDate(time.Now()),
	}
}

// ──────────────────────────────────────────────
// OIDC
// ──────────────────────────────────────────────

func TestOIDCVerifier_TokenValido(t *testing.T) {
	v, key := newOIDC(t)

	id, err := v.Verify(context.Background(), signRS256(t, key, baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "sub-123", id.UserID)
	assert.Equal(t, "Alice", id.Name)
}

func TestOIDCVerifier_OIDTienePrioridad(t *testing.T) {
	v, key := newOIDC(t)
	claims := baseClaims()
	claims["oid"] = "00000000-aaaa-bbbb-cccc-000000000001"

	id, err := v.Verify(context.Background(), signRS256(t, key, claims))
	require.NoError(t, err)
	assert.Equal(t, "00000000-aaaa-bbbb-cccc-000000000001", id.UserID)
}

func TestOIDCVerifier_Rechazos(t *testing.T) {
	v, key := newOIDC(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token func() string
	}{
		{"expirado", func() string {
			c := baseClaims()
			c["exp"] = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return signRS256(t, key, c)
		}},
		{"emisor distinto", func() string {
			c := baseClaims()
			c["iss"] = "https://evil.example.com"
			return signRS256(t, key, c)
		}},
		{"audiencia distinta", func() string {
			c := baseClaims()
			c["aud"] = "otra-api"
			return signRS256(t, key, c)
		}},
		{"firmado con otra clave", func() string { return signRS256(t, otherKey, baseClaims()) }},
		{"basura", func() string { return "not-a-jwt" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token())
			assert.ErrorIs(t, err, identity.ErrInvalidToken)
		})
	}
}

// ──────────────────────────────────────────────
// HMAC
// ──────────────────────────────────────────────

func TestHMACVerifier(t *testing.T) {
	v := identity.NewHMACVerifier("secret", "project-tracking")

	token, err := pkgjwt.Generate("secret", "user-9", "Bob", "project-tracking", 5)
	require.NoError(t, err)
	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, identity.Identity{UserID: "user-9", Name: "Bob"}, id)

	_, err = v.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}
