package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
	"github.com/noah-isme/olympiad-progress-api/internal/rules"
	"github.com/noah-isme/olympiad-progress-api/internal/utils"
)

// CatalogHandler serves the read-only rule table.
type CatalogHandler struct {
	table rules.Table
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(table rules.Table) *CatalogHandler {
	return &CatalogHandler{table: table}
}

// Register wires catalog routes.
func (h *CatalogHandler) Register(router fiber.Router) {
	authenticated := middleware.AuthOptions{}
	router.Get("/rewards", middleware.WithAuth(h.rewards, authenticated))
	router.Get("/levels", middleware.WithAuth(h.levels, authenticated))
	router.Get("/badges", middleware.WithAuth(h.badges, authenticated))
	router.Get("/points", middleware.WithAuth(h.points, authenticated))
}

func (h *CatalogHandler) rewards(c *fiber.Ctx) error {
	return utils.OK(c, h.table.Rewards, "rewards retrieved", fiber.Map{"count": len(h.table.Rewards)})
}

func (h *CatalogHandler) levels(c *fiber.Ctx) error {
	return utils.OK(c, h.table.Levels, "levels retrieved", fiber.Map{"count": len(h.table.Levels)})
}

func (h *CatalogHandler) badges(c *fiber.Ctx) error {
	return utils.OK(c, h.table.Badges, "badges retrieved", fiber.Map{"count": len(h.table.Badges)})
}

func (h *CatalogHandler) points(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "point rules retrieved", h.table.Points)
}
