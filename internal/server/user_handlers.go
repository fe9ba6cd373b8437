package server

import (
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /api/users?limit=&offset=
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.userService.ListUsers(c.UserContext(), middleware.IdentityFrom(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.Profile(c.UserContext(), middleware.IdentityFrom(c), "")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.userService.Profile(c.UserContext(), middleware.IdentityFrom(c), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me. Omitted fields are unchanged.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Bio       *string `json:"bio"`
		Avatar    string  `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondDeclined[models.User](c, models.NewInvalidOperationError("Invalid request body"))
	}
	avatar, err := decodeImageField(req.Avatar)
	if err != nil {
		return respondDeclined[models.User](c, err)
	}

	res, err := s.userService.UpdateProfile(c.UserContext(), middleware.IdentityFrom(c), service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Avatar:    avatar,
	})
	return respondResult(c, fiber.StatusOK, res, err)
}

// DeleteMyAccount handles DELETE /api/users/me
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	res, err := s.userService.DeleteAccount(c.UserContext(), middleware.IdentityFrom(c))
	return respondResult(c, fiber.StatusOK, res, err)
}

// FollowUser handles POST /api/users/:username/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	res, err := s.followService.Follow(c.UserContext(), middleware.IdentityFrom(c), c.Params("username"))
	return respondResult(c, fiber.StatusOK, res, err)
}

// UnfollowUser handles DELETE /api/users/:username/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	res, err := s.followService.Unfollow(c.UserContext(), middleware.IdentityFrom(c), c.Params("username"))
	return respondResult(c, fiber.StatusOK, res, err)
}

// GetUserPosts handles GET /api/users/:username/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.PostsByUser(c.UserContext(), middleware.IdentityFrom(c),
		c.Params("username"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetFollowers handles GET /api/users/:username/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.followService.Followers(c.UserContext(), c.Params("username"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:username/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.followService.Following(c.UserContext(), c.Params("username"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
