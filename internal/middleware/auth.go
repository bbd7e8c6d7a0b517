package middleware

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Token errors
var (
	ErrMissingToken  = errors.New("missing token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoWorkspace   = errors.New("workspace not found")
	errInvalidHeader = errors.New("invalid authorization header format")
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	ClaimsKey      contextKey = "claims"
	Auth0IDKey     contextKey = "auth0_id"
	WorkspaceIDKey contextKey = "workspace_id"
)

// WorkspaceProvider resolves the workspace of an Auth0 user
type WorkspaceProvider interface {
	GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string) (workspaceID int32, err error)
}

// TokenValidator checks a raw bearer token. *validator.Validator satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// AuthMiddleware validates Auth0 access tokens
type AuthMiddleware struct {
	validator         TokenValidator
	workspaceProvider WorkspaceProvider
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domain, audience string, workspaceProvider WorkspaceProvider) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return NewAuthMiddlewareWithValidator(jwtValidator, workspaceProvider), nil
}

// NewAuthMiddlewareWithValidator builds the middleware around an existing validator
func NewAuthMiddlewareWithValidator(v TokenValidator, workspaceProvider WorkspaceProvider) *AuthMiddleware {
	return &AuthMiddleware{validator: v, workspaceProvider: workspaceProvider}
}

// Authenticate validates the bearer token and injects the caller's workspace
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return m.authenticate(true)
}

// AuthenticateToken validates the bearer token only. Used by the login callback, which runs
// before the workspace exists.
func (m *AuthMiddleware) AuthenticateToken() echo.MiddlewareFunc {
	return m.authenticate(false)
}

func (m *AuthMiddleware) authenticate(requireWorkspace bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return unauthorizedError(c, err.Error())
			}

			claims, err := m.validate(c.Request().Context(), token)
			if err != nil {
				return unauthorizedError(c, err.Error())
			}

			auth0ID := claims.RegisteredClaims.Subject
			ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, Auth0IDKey, auth0ID)

			if requireWorkspace {
				workspaceID, err := m.lookupWorkspace(ctx, auth0ID)
				if err != nil {
					return unauthorizedError(c, err.Error())
				}
				ctx = context.WithValue(ctx, WorkspaceIDKey, workspaceID)
			}

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// ResolveToken validates a raw token and returns its subject and workspace. Used where the
// token does not arrive in a header, such as the websocket upgrade.
func (m *AuthMiddleware) ResolveToken(ctx context.Context, token string) (auth0ID string, workspaceID int32, err error) {
	if token == "" {
		return "", 0, ErrMissingToken
	}
	claims, err := m.validate(ctx, token)
	if err != nil {
		return "", 0, err
	}
	auth0ID = claims.RegisteredClaims.Subject
	workspaceID, err = m.lookupWorkspace(ctx, auth0ID)
	if err != nil {
		return "", 0, err
	}
	return auth0ID, workspaceID, nil
}

func (m *AuthMiddleware) validate(ctx context.Context, token string) (*validator.ValidatedClaims, error) {
	raw, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("Token validation failed")
		return nil, ErrInvalidToken
	}
	claims, ok := raw.(*validator.ValidatedClaims)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *AuthMiddleware) lookupWorkspace(ctx context.Context, auth0ID string) (int32, error) {
	if m.workspaceProvider == nil {
		return 0, ErrNoWorkspace
	}
	workspaceID, err := m.workspaceProvider.GetWorkspaceByAuth0ID(ctx, auth0ID)
	if err != nil {
		log.Debug().Err(err).Str("auth0_id", auth0ID).Msg("Workspace lookup failed")
		return 0, ErrNoWorkspace
	}
	return workspaceID, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errInvalidHeader
	}
	return strings.TrimSpace(token), nil
}

// GetAuth0ID extracts the Auth0 user ID from the context
func GetAuth0ID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(Auth0IDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}

// GetCustomClaims extracts the custom claims from the context
func GetCustomClaims(c echo.Context) *CustomClaims {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		return custom
	}
	return nil
}

// GetWorkspaceID extracts the workspace ID from the context
func GetWorkspaceID(c echo.Context) int32 {
	if id, ok := c.Request().Context().Value(WorkspaceIDKey).(int32); ok {
		return id
	}
	return 0
}
