package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/olympiad-progress-api/internal/utils"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	// Roles lists the accepted roles; empty accepts any authenticated user.
	Roles []string
	// StudentParam names the route parameter holding the student whose data
	// is touched. Students must match it, parents must be linked to it and
	// staff always pass.
	StudentParam   string
	AllowAnonymous bool
}

// WithAuth wraps a handler with authentication and student-ownership guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	allowed := make(map[string]struct{}, len(opts.Roles))
	for _, role := range opts.Roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		userID, authenticated := c.Locals("user_id").(uint)
		if !authenticated {
			if opts.AllowAnonymous {
				return handler(c)
			}
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		role := normalizeRoleValue(c.Locals("user_role"))
		if len(allowed) > 0 {
			if _, ok := allowed[role]; !ok {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		}

		if opts.StudentParam == "" || isStaff(role) {
			return handler(c)
		}

		studentID, err := strconv.ParseUint(c.Params(opts.StudentParam), 10, 64)
		if err != nil || studentID == 0 {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid student id", nil)
		}

		switch role {
		case RoleStudent:
			if uint(studentID) == userID {
				return handler(c)
			}
		case RoleParent:
			for _, child := range linkedStudents(c) {
				if child == uint(studentID) {
					return handler(c)
				}
			}
		}
		return utils.Fail(c, fiber.StatusForbidden, "no access to this student", nil)
	}
}

func linkedStudents(c *fiber.Ctx) []uint {
	if ids, ok := c.Locals("student_ids").([]uint); ok {
		return ids
	}
	return nil
}
