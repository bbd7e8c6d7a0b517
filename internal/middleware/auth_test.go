package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
)

func TestGetAuth0ID(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		setup    func(c echo.Context)
		expected string
	}{
		{
			name: "returns auth0 id when present",
			setup: func(c echo.Context) {
				ctx := context.WithValue(c.Request().Context(), Auth0IDKey, "auth0|12345")
				c.SetRequest(c.Request().WithContext(ctx))
			},
			expected: "auth0|12345",
		},
		{
			name:     "returns empty string when not present",
			setup:    func(c echo.Context) {},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			tt.setup(c)

			result := GetAuth0ID(c)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetClaims(t *testing.T) {
	e := echo.New()

	t.Run("returns claims when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Subject: "auth0|test",
			},
		}
		ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		result := GetClaims(c)
		if result == nil {
			t.Fatal("Expected claims, got nil")
		}
		if result.RegisteredClaims.Subject != "auth0|test" {
			t.Errorf("Expected subject 'auth0|test', got %q", result.RegisteredClaims.Subject)
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		result := GetClaims(c)
		if result != nil {
			t.Error("Expected nil, got claims")
		}
	})
}

func TestGetCustomClaims(t *testing.T) {
	e := echo.New()

	t.Run("returns custom claims when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		customClaims := &CustomClaims{
			Email:   "test@example.com",
			Name:    "Test User",
			Picture: "https://example.com/pic.jpg",
		}
		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Subject: "auth0|test",
			},
			CustomClaims: customClaims,
		}
		ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		result := GetCustomClaims(c)
		if result == nil {
			t.Fatal("Expected custom claims, got nil")
		}
		if result.Email != "test@example.com" {
			t.Errorf("Expected email 'test@example.com', got %q", result.Email)
		}
		if result.Name != "Test User" {
			t.Errorf("Expected name 'Test User', got %q", result.Name)
		}
	})

	t.Run("returns nil when claims not present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		result := GetCustomClaims(c)
		if result != nil {
			t.Error("Expected nil, got custom claims")
		}
	})
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{
		Email: "test@example.com",
		Name:  "Test",
	}

	err := claims.Validate(context.Background())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestGetWorkspaceID(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		setup    func(c echo.Context)
		expected int32
	}{
		{
			name: "returns workspace id when present",
			setup: func(c echo.Context) {
				ctx := context.WithValue(c.Request().Context(), WorkspaceIDKey, int32(42))
				c.SetRequest(c.Request().WithContext(ctx))
			},
			expected: 42,
		},
		{
			name:     "returns 0 when not present",
			setup:    func(c echo.Context) {},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			tt.setup(c)

			result := GetWorkspaceID(c)
			if result != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, result)
			}
		})
	}
}

type fakeValidator struct {
	claims interface{}
	err    error
}

func (f *fakeValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

type fakeWorkspaceProvider struct {
	workspaceID int32
	err         error
	calls       int
}

func (f *fakeWorkspaceProvider) GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string) (int32, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.workspaceID, nil
}

func validClaims(sub string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: sub},
		CustomClaims:     &CustomClaims{Email: "ana@example.com"},
	}
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	err := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, c, reached
}

func TestAuthenticate_InjectsWorkspace(t *testing.T) {
	provider := &fakeWorkspaceProvider{workspaceID: 42}
	m := NewAuthMiddlewareWithValidator(&fakeValidator{claims: validClaims("auth0|ana")}, provider)

	rec, c, reached := runAuth(t, m.Authenticate(), "Bearer good-token")

	if !reached {
		t.Fatal("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if GetWorkspaceID(c) != 42 {
		t.Errorf("Expected workspace 42, got %d", GetWorkspaceID(c))
	}
	if GetAuth0ID(c) != "auth0|ana" {
		t.Errorf("Expected auth0|ana, got %q", GetAuth0ID(c))
	}
	if GetCustomClaims(c) == nil || GetCustomClaims(c).Email != "ana@example.com" {
		t.Error("Expected custom claims in context")
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		validator *fakeValidator
		provider  *fakeWorkspaceProvider
		detail    string
	}{
		{"missing header", "", &fakeValidator{claims: validClaims("a")}, &fakeWorkspaceProvider{}, "missing token"},
		{"wrong scheme", "Basic abc", &fakeValidator{claims: validClaims("a")}, &fakeWorkspaceProvider{}, "invalid authorization header format"},
		{"empty bearer", "Bearer ", &fakeValidator{claims: validClaims("a")}, &fakeWorkspaceProvider{}, "invalid authorization header format"},
		{"invalid token", "Bearer bad", &fakeValidator{err: errors.New("expired")}, &fakeWorkspaceProvider{}, "invalid token"},
		{"unexpected claims type", "Bearer x", &fakeValidator{claims: "not claims"}, &fakeWorkspaceProvider{}, "invalid token"},
		{"no workspace", "Bearer x", &fakeValidator{claims: validClaims("a")}, &fakeWorkspaceProvider{err: errors.New("nope")}, "workspace not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddlewareWithValidator(tt.validator, tt.provider)

			rec, _, reached := runAuth(t, m.Authenticate(), tt.header)

			if reached {
				t.Fatal("handler should not be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}
			var body problemDetails
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if body.Detail != tt.detail {
				t.Errorf("Expected detail %q, got %q", tt.detail, body.Detail)
			}
			if body.Type != errorTypeUnauthorized {
				t.Errorf("Expected type %q, got %q", errorTypeUnauthorized, body.Type)
			}
		})
	}
}

func TestAuthenticateToken_SkipsWorkspaceLookup(t *testing.T) {
	provider := &fakeWorkspaceProvider{err: errors.New("not created yet")}
	m := NewAuthMiddlewareWithValidator(&fakeValidator{claims: validClaims("auth0|new")}, provider)

	_, c, reached := runAuth(t, m.AuthenticateToken(), "bearer token")

	if !reached {
		t.Fatal("expected handler to be called")
	}
	if provider.calls != 0 {
		t.Errorf("Expected no workspace lookup, got %d", provider.calls)
	}
	if GetWorkspaceID(c) != 0 {
		t.Errorf("Expected no workspace, got %d", GetWorkspaceID(c))
	}
}

func TestResolveToken(t *testing.T) {
	m := NewAuthMiddlewareWithValidator(&fakeValidator{claims: validClaims("auth0|ana")}, &fakeWorkspaceProvider{workspaceID: 9})

	sub, ws, err := m.ResolveToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != "auth0|ana" || ws != 9 {
		t.Errorf("Expected auth0|ana/9, got %s/%d", sub, ws)
	}

	if _, _, err := m.ResolveToken(context.Background(), ""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Expected ErrMissingToken, got %v", err)
	}
}
