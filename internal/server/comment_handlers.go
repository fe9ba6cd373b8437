package server

import (
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	comments, err := s.commentService.CommentsForPost(c.UserContext(), postID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondDeclined[models.Comment](c, models.NewInvalidOperationError("Invalid request body"))
	}

	res, err := s.commentService.CreateComment(c.UserContext(), middleware.IdentityFrom(c), postID, req.Content)
	return respondResult(c, fiber.StatusCreated, res, err)
}

// EditComment handles PUT /api/comments/:id
func (s *Server) EditComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "comment")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondDeclined[models.Comment](c, models.NewInvalidOperationError("Invalid request body"))
	}

	res, err := s.commentService.EditComment(c.UserContext(), middleware.IdentityFrom(c), id, req.Content)
	return respondResult(c, fiber.StatusOK, res, err)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "comment")
	if err != nil {
		return nil
	}
	res, err := s.commentService.DeleteComment(c.UserContext(), middleware.IdentityFrom(c), id)
	return respondResult(c, fiber.StatusOK, res, err)
}
