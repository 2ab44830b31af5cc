package router

import (
	"encoding/base64"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricsStatus(t *testing.T, guard fiber.Handler, user, password string) int {
	t.Helper()
	app := fiber.New()
	if guard != nil {
		app.Get("/metrics", guard, func(c *fiber.Ctx) error { return c.SendString("ok") })
	}
	req := httptest.NewRequest("GET", "/metrics", nil)
	if user != "" || password != "" {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(user+":"+password)))
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestMetricsGuardWithoutPasswordOutsideDev(t *testing.T) {
	guard := metricsGuard("admin", "", false)
	assert.Nil(t, guard)
	assert.Equal(t, fiber.StatusNotFound, metricsStatus(t, guard, "admin", ""))
}

func TestMetricsGuardWithoutPasswordInDev(t *testing.T) {
	assert.Equal(t, fiber.StatusOK, metricsStatus(t, metricsGuard("admin", "", true), "", ""))
}

func TestMetricsGuardRequiresPassword(t *testing.T) {
	for _, dev := range []bool{true, false} {
		guard := metricsGuard("admin", "s3cret", dev)
		assert.Equal(t, fiber.StatusUnauthorized, metricsStatus(t, guard, "admin", ""))
		assert.Equal(t, fiber.StatusUnauthorized, metricsStatus(t, guard, "", ""))
		assert.Equal(t, fiber.StatusOK, metricsStatus(t, guard, "admin", "s3cret"))
	}
}
