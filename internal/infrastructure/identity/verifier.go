// Package identity valida los tokens Bearer emitidos por el proveedor de identidad y devuelve
// el usuario que actúa. El núcleo de la aplicación nunca ve el token.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Tweltz1/Project-Tracking/pkg/config"
	pkgjwt "github.com/Tweltz1/Project-Tracking/pkg/jwt"
	"github.com/Tweltz1/Project-Tracking/pkg/logger"
)

// ErrInvalidToken token con firma, emisor, audiencia o expiración inválidos.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity usuario autenticado.
type Identity struct {
	UserID string // oid si existe, si no sub
	Name   string
}

// TokenVerifier valida un token y devuelve la identidad.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// HMACVerifier tokens HS256 con secreto compartido (desarrollo y pruebas).
type HMACVerifier struct {
	secret string
	issuer string
}

// NewHMACVerifier crea el verificador HS256.
func NewHMACVerifier(secret, issuer string) *HMACVerifier {
	return &HMACVerifier{secret: secret, issuer: issuer}
}

// Verify valida el token con pkg/jwt.
func (v *HMACVerifier) Verify(_ context.Context, token string) (Identity, error) {
	claims, err := pkgjwt.Parse(v.secret, v.issuer, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return Identity{UserID: claims.UserID(), Name: claims.Name}, nil
}

// OIDCVerifier tokens RS256 validados contra el JWKS del proveedor (Azure AD B2C, Keycloak...).
type OIDCVerifier struct {
	jwks     keyfunc.Keyfunc
	issuer   string
	audience string
	leeway   time.Duration
}

// NewOIDCVerifier crea el verificador con JWKS remoto y refresco en segundo plano.
// El primer fallo HTTP no impide arrancar; el refresco reintenta.
func NewOIDCVerifier(ctx context.Context, cfg config.OIDCConfig, log *logger.Logger) (*OIDCVerifier, error) {
	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: 10 * time.Second},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			log.Error().Err(err).Str("url", cfg.JWKSURL).Msg("error al refrescar JWKS")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwks storage: %w", err)
	}
	k, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("keyfunc: %w", err)
	}
	return NewOIDCVerifierWithKeyfunc(k, cfg.Issuer, cfg.Audience), nil
}

// NewOIDCVerifierWithKeyfunc usa una keyfunc ya construida (tests con JWKS en memoria).
func NewOIDCVerifierWithKeyfunc(k keyfunc.Keyfunc, issuer, audience string) *OIDCVerifier {
	return &OIDCVerifier{jwks: k, issuer: issuer, audience: audience, leeway: 30 * time.Second}
}

// Verify valida firma RS256, expiración, emisor y audiencia configurados.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	claims := &pkgjwt.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.jwks.KeyfuncCtx(ctx), opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID() == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: claims.UserID(), Name: claims.Name}, nil
}
