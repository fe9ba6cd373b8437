package server

import (
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Content string `json:"content"`
	// Image is a data URL or raw base64; empty for text-only posts.
	Image string `json:"image,omitempty"`
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return respondDeclined[models.Post](c, models.NewInvalidOperationError("Invalid request body"))
	}
	image, err := decodeImageField(req.Image)
	if err != nil {
		return respondDeclined[models.Post](c, err)
	}

	res, err := s.postService.CreatePost(c.UserContext(), middleware.IdentityFrom(c), service.CreatePostInput{
		Content: req.Content,
		Image:   image,
	})
	return respondResult(c, fiber.StatusCreated, res, err)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// EditPost handles PUT /api/posts/:id
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return respondDeclined[models.Post](c, models.NewInvalidOperationError("Invalid request body"))
	}

	res, err := s.postService.EditPost(c.UserContext(), middleware.IdentityFrom(c), id, req.Content)
	return respondResult(c, fiber.StatusOK, res, err)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return nil
	}
	res, err := s.postService.DeletePost(c.UserContext(), middleware.IdentityFrom(c), id)
	return respondResult(c, fiber.StatusOK, res, err)
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return nil
	}
	res, err := s.likeService.LikePost(c.UserContext(), middleware.IdentityFrom(c), id)
	return respondResult(c, fiber.StatusOK, res, err)
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "post")
	if err != nil {
		return nil
	}
	res, err := s.likeService.UnlikePost(c.UserContext(), middleware.IdentityFrom(c), id)
	return respondResult(c, fiber.StatusOK, res, err)
}
