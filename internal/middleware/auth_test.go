package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"waypost/internal/config"
	"waypost/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-auth-middleware"

func setupAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app := fiber.New()
	app.Get("/protected", AuthRequired, func(c *fiber.Ctx) error {
		session := SessionFromLocals(c)
		return c.JSON(fiber.Map{
			"explorer_id": session.ExplorerID,
			"role":        string(session.Role),
		})
	})
	app.Get("/optional", OptionalSession, func(c *fiber.Ctx) error {
		session := SessionFromLocals(c)
		return c.JSON(fiber.Map{"explorer_id": session.ExplorerID})
	})
	app.Get("/admin", AuthRequired, AdminRequired, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := setupAuthApp(t)

	validToken, err := IssueToken(30, models.RoleCreator, testSecret, time.Hour)
	require.NoError(t, err)
	expiredToken, err := IssueToken(30, models.RoleCreator, testSecret, -time.Hour)
	require.NoError(t, err)
	wrongKeyToken, err := IssueToken(30, models.RoleCreator, "some-other-secret-entirely", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"valid token", "Bearer " + validToken, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"malformed header", "NotBearer " + validToken, fiber.StatusUnauthorized},
		{"expired token", "Bearer " + expiredToken, fiber.StatusUnauthorized},
		{"wrong signing key", "Bearer " + wrongKeyToken, fiber.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestOptionalSession(t *testing.T) {
	app := setupAuthApp(t)

	// Anonymous passes through.
	req := httptest.NewRequest("GET", "/optional", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Invalid token is treated as anonymous, not rejected.
	req = httptest.NewRequest("GET", "/optional", nil)
	req.Header.Set("Authorization", "Bearer broken.token.here")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminRequired(t *testing.T) {
	app := setupAuthApp(t)

	adminToken, err := IssueToken(40, models.RoleAdmin, testSecret, time.Hour)
	require.NoError(t, err)
	userToken, err := IssueToken(30, models.RoleUser, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
