package middleware

import (
	"net/http/httptest"
	"testing"

	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuth = AuthConfig{Secret: "test-secret-that-is-long-enough-123", Issuer: "agora-auth"}

func TestParseToken_RoundTrip(t *testing.T) {
	p := Principal{UserID: 7, Role: models.RoleStaff, TenantKey: "north-high"}
	tok, err := SignToken(p, testAuth)
	require.NoError(t, err)

	got, err := ParseToken(tok, testAuth)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestParseToken_Rejects(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAuth.Secret))
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong issuer", sign(jwt.MapClaims{"sub": "1", "role": "member", "tenant": "t", "iss": "other"})},
		{"unknown role", sign(jwt.MapClaims{"sub": "1", "role": "owner", "tenant": "t", "iss": "agora-auth"})},
		{"missing tenant", sign(jwt.MapClaims{"sub": "1", "role": "member", "iss": "agora-auth"})},
		{"zero subject", sign(jwt.MapClaims{"sub": "0", "role": "member", "tenant": "t", "iss": "agora-auth"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, testAuth)
			require.Error(t, err)
			assert.True(t, models.HasCode(err, models.CodeUnauthorized))
		})
	}
}

func TestAuthenticate_Middleware(t *testing.T) {
	app := fiber.New()
	app.Get("/me", Authenticate(testAuth), func(c *fiber.Ctx) error {
		p, ok := CurrentPrincipal(c)
		require.True(t, ok)
		fromCtx, ok := PrincipalFromContext(c.UserContext())
		require.True(t, ok)
		assert.Equal(t, p, fromCtx)
		return c.JSON(p)
	})

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	tok, err := SignToken(Principal{UserID: 3, Role: models.RoleMember, TenantKey: "t1"}, testAuth)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
