package auth

import (
	"context"

	authsvc "roamstay-backend/internal/application/auth"
	"roamstay-backend/internal/domain"
	"roamstay-backend/internal/middleware"
	"roamstay-backend/internal/pkg/response"
	"roamstay-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const userSessionsPrefix = "user_sessions:"

// Handlers holds dependencies for signup, login, logout, and me.
type Handlers struct {
	Auth   *authsvc.Service
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

// LoginRequest body. The validate tags feed the login form schema.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupForm GET /signup — the field schema clients render the signup form from.
func (h *Handlers) SignupForm(c *fiber.Ctx) error {
	return response.Success(c, "Signup form", fiber.Map{
		"fields": validation.Describe(authsvc.RegisterInput{}),
	}, nil)
}

// Signup POST /signup — register, establish a session, and report where
// to go next (the saved return path when the signup was forced by a gate).
func (h *Handlers) Signup(c *fiber.Ctx) error {
	var in authsvc.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return domain.ValidationFailed([]domain.FieldViolation{{Field: "body", Message: "must be valid JSON or form data"}})
	}

	user, err := h.Auth.Register(c.Context(), in)
	if err != nil {
		return err
	}
	if err := h.establishSession(c, user); err != nil {
		return err
	}
	redirectTo := middleware.PopReturnTo(c)
	if redirectTo == "" {
		redirectTo = "/listings"
	}

	return response.SuccessCreated(c, "Welcome to RoamStay", fiber.Map{
		"user":       userPayload(user),
		"redirectTo": redirectTo,
	}, nil)
}

// LoginForm GET /login — the field schema clients render the login form from.
func (h *Handlers) LoginForm(c *fiber.Ctx) error {
	return response.Success(c, "Login form", fiber.Map{
		"fields": validation.Describe(LoginRequest{}),
	}, nil)
}

// Login POST /login — verify credentials, rotate the session id, and return
// the saved return path so the client can resume the interrupted request.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.Unauthenticated("Email and password are required")
	}

	user, err := h.Auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := h.establishSession(c, user); err != nil {
		return err
	}
	redirectTo := middleware.PopReturnTo(c)
	if redirectTo == "" {
		redirectTo = "/listings"
	}

	return response.Success(c, "Welcome back", fiber.Map{
		"user":       userPayload(user),
		"redirectTo": redirectTo,
	}, nil)
}

// Me GET /me — current session identity.
func (h *Handlers) Me(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return domain.Unauthenticated("Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": identity}, nil)
}

// Logout GET /logout — untrack and destroy the session, clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if identity, ok := middleware.CurrentIdentity(c); ok && sessionID != "" {
		_ = h.Rdb.SRem(ctx, userSessionsPrefix+identity.UserID.String(), sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// establishSession rotates the session id, stores the user in it, tracks the
// session under user_sessions:<id>, and sets the cookie.
func (h *Handlers) establishSession(c *fiber.Ctx, user *domain.User) error {
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   user.UserID.String(),
		Username: user.Username,
		Email:    user.Email,
	})

	ctx := context.Background()
	if err := h.Rdb.SAdd(ctx, userSessionsPrefix+user.UserID.String(), sessionID).Err(); err != nil {
		return domain.Internal(err)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)
	return nil
}

func userPayload(u *domain.User) fiber.Map {
	return fiber.Map{
		"user_id":  u.UserID.String(),
		"username": u.Username,
		"email":    u.Email,
	}
}
