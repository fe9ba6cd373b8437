package server

import (
	"socialgraph/internal/middleware"
	"socialgraph/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed?before=<RFC 3339>&before_id=<id>&limit=<n>
func (s *Server) GetFeed(c *fiber.Ctx) error {
	cursor, err := parseFeedCursor(c)
	if err != nil {
		return nil
	}
	limit := c.QueryInt("limit", service.DefaultFeedLimit)

	page, err := s.feedService.Feed(c.UserContext(), middleware.IdentityFrom(c), cursor, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
