package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"roamstay-backend/internal/domain"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. For anonymous requests
// it records the attempted path so a later login can redirect back,
// then fails with the unauthenticated error for the boundary to map.
// Nothing downstream of this gate runs for an anonymous request.
func RequireAuth(cfg SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			SaveReturnTo(c, cfg)
			return domain.Unauthenticated("You must be logged in")
		}
		// Attach auth context for handlers (same key)
		c.Locals("auth", user)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentIdentity extracts the typed identity of the logged-in user.
// The second result is false for anonymous or malformed sessions.
func CurrentIdentity(c *fiber.Ctx) (domain.Identity, bool) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return domain.Identity{}, false
	}
	idStr, _ := m["user_id"].(string)
	uid, err := uuid.Parse(idStr)
	if err != nil {
		return domain.Identity{}, false
	}
	username, _ := m["username"].(string)
	email, _ := m["email"].(string)
	return domain.Identity{UserID: uid, Username: username, Email: email}, true
}
