package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetRecentSearches handles GET /api/searches/recent
func (s *Server) GetRecentSearches(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	queries, err := s.searchHistory.Recent(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if queries == nil {
		queries = []string{}
	}

	return c.JSON(fiber.Map{"queries": queries})
}

// ClearRecentSearches handles DELETE /api/searches/recent
func (s *Server) ClearRecentSearches(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if err := s.searchHistory.Clear(c.UserContext(), userID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.SendStatus(fiber.StatusNoContent)
}
