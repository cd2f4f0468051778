package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestJWTProtectedStoresClaims(t *testing.T) {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/", func(c *fiber.Ctx) error {
		require.Equal(t, uint(50), c.Locals("user_id"))
		require.Equal(t, RoleParent, c.Locals("user_role"))
		require.Equal(t, []uint{3, 4}, c.Locals("student_ids"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	token := signToken(t, jwt.MapClaims{
		"sub":         "50",
		"role":        "Parent",
		"student_ids": []interface{}{3, "4", -1},
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	expired := signToken(t, jwt.MapClaims{"sub": 1, "exp": time.Now().Add(-time.Hour).Unix()})
	cases := map[string]string{
		"missing": "",
		"scheme":  "Basic abc",
		"garbage": "Bearer not-a-token",
		"expired": "Bearer " + expired,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
