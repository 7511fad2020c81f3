package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-storefront/internal/model"
	"go-storefront/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type mockUsers struct {
	users map[uuid.UUID]*model.User
}

func (m *mockUsers) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newUser(version string, active bool, privileges ...string) *model.User {
	u := &model.User{Email: "admin@example.com", FullName: "Admin", IsActive: active, TokenVersion: version}
	u.ID = uuid.New()
	for _, code := range privileges {
		u.Privileges = append(u.Privileges, model.Privilege{Code: code})
	}
	return u
}

func bearer(t *testing.T, u *model.User, version string) string {
	t.Helper()
	token, err := jwt.GenerateToken(jwt.Principal{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.FullName,
		RoleCode:     model.RoleAdmin,
		Privileges:   u.GetPrivilegeCodes(),
		TokenVersion: version,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func authApp(users UserLookup) *fiber.App {
	app := fiber.New()
	app.Get("/me", RequireAuth(users), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals(LocalUserID), "email": c.Locals(LocalUserEmail)})
	})
	app.Get("/restock", RequireAuth(users), RequirePrivilege(model.PrivInventoryRestock), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, authorization string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireAuth(t *testing.T) {
	current := newUser("v2", true)
	inactive := newUser("v1", false)
	app := authApp(&mockUsers{users: map[uuid.UUID]*model.User{current.ID: current, inactive.ID: inactive}})

	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", ""))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", "Token abc"))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", "Bearer not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", bearer(t, current, "v1")), "stale token version")
	assert.Equal(t, http.StatusForbidden, get(t, app, "/me", bearer(t, inactive, "v1")))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/me", bearer(t, newUser("v1", true), "v1")), "unknown user")
	assert.Equal(t, http.StatusOK, get(t, app, "/me", bearer(t, current, "v2")))
}

func TestRequireAuth_QueryTokenOnlyOnUpgrade(t *testing.T) {
	u := newUser("v1", true)
	app := authApp(&mockUsers{users: map[uuid.UUID]*model.User{u.ID: u}})
	token := strings.TrimPrefix(bearer(t, u, "v1"), "Bearer ")

	req := httptest.NewRequest(http.MethodGet, "/me?"+QueryAccessToken+"="+token, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me?"+QueryAccessToken+"="+token, nil)
	req.Header.Set(fiber.HeaderConnection, "Upgrade")
	req.Header.Set(fiber.HeaderUpgrade, "websocket")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequirePrivilege(t *testing.T) {
	shopper := newUser("v1", true)
	admin := newUser("v1", true, model.PrivInventoryRestock)
	app := authApp(&mockUsers{users: map[uuid.UUID]*model.User{shopper.ID: shopper, admin.ID: admin}})

	assert.Equal(t, http.StatusForbidden, get(t, app, "/restock", bearer(t, shopper, "v1")))
	assert.Equal(t, http.StatusNoContent, get(t, app, "/restock", bearer(t, admin, "v1")))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.New(core))})
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/fail", func(c *fiber.Ctx) error { return errors.New("boom") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get(HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusInternalServerError, entries[1].ContextMap()["status"])
}
