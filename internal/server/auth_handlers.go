package server

import (
	"socialgraph/internal/authz"
	"socialgraph/internal/models"
	"socialgraph/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Session is the payload of a successful signup or login.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondDeclined[Session](c, models.NewInvalidOperationError("Invalid request body"))
	}

	res, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil || !res.Success {
		return respondResult(c, fiber.StatusCreated, res, err)
	}

	session, err := s.newSession(res.Payload)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, fiber.StatusCreated, models.Succeed(res.Message, session), nil)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondDeclined[Session](c, models.NewInvalidOperationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondDeclined[Session](c, err)
	}

	session, err := s.newSession(user)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, fiber.StatusOK, models.Succeed("Logged in", session), nil)
}

func (s *Server) newSession(user *models.User) (*Session, error) {
	token, err := s.tokens.IssueToken(authz.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, User: user}, nil
}
