package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
)

func newAuthApp(userID interface{}, role string, children []uint, opts middleware.AuthOptions) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != nil {
			c.Locals("user_id", userID)
		}
		if role != "" {
			c.Locals("user_role", role)
		}
		if children != nil {
			c.Locals("student_ids", children)
		}
		return c.Next()
	})
	app.Get("/students/:studentID", middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}, opts))
	return app
}

func TestWithAuthStudentOwnsRoute(t *testing.T) {
	opts := middleware.AuthOptions{StudentParam: "studentID"}

	resp := perform(t, newAuthApp(uint(10), "Student", nil, opts), "/students/10")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = perform(t, newAuthApp(uint(10), "student", nil, opts), "/students/11")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWithAuthParentNeedsLink(t *testing.T) {
	opts := middleware.AuthOptions{StudentParam: "studentID"}

	resp := perform(t, newAuthApp(uint(50), "parent", []uint{10, 12}, opts), "/students/12")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = perform(t, newAuthApp(uint(50), "parent", []uint{10}, opts), "/students/11")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWithAuthTeacherSeesEveryone(t *testing.T) {
	opts := middleware.AuthOptions{StudentParam: "studentID"}

	resp := perform(t, newAuthApp(uint(1), "teacher", nil, opts), "/students/99")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestWithAuthRoleRestriction(t *testing.T) {
	opts := middleware.AuthOptions{Roles: []string{middleware.RoleStudent}, StudentParam: "studentID"}

	resp := perform(t, newAuthApp(uint(1), "teacher", nil, opts), "/students/1")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWithAuthRequiresUserByDefault(t *testing.T) {
	resp := perform(t, newAuthApp(nil, "", nil, middleware.AuthOptions{}), "/students/1")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = perform(t, newAuthApp(nil, "", nil, middleware.AuthOptions{AllowAnonymous: true}), "/students/1")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestWithAuthRejectsMalformedStudent(t *testing.T) {
	opts := middleware.AuthOptions{StudentParam: "studentID"}

	resp := perform(t, newAuthApp(uint(10), "student", nil, opts), "/students/abc")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func perform(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
