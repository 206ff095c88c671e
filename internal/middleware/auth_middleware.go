package middleware

import (
	"context"
	"log"
	"strings"

	"accounts/internal/access"
	"accounts/internal/apperrors"
	"accounts/internal/models"

	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// Authenticator resolves the user holding a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired is a Fiber middleware that resolves the bearer session token
// into an access.Actor stored in the request locals.
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperrors.SessionInvalid("Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") || parts[1] == "" {
			return apperrors.SessionInvalid("Authorization header format must be 'Bearer <token>'")
		}

		user, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			log.Printf("Session validation failed: %v", err)
			return err
		}

		c.Locals(actorKey, access.ActorOf(user))
		return c.Next()
	}
}

// ActorFrom returns the actor stored by AuthRequired. Routes without the
// middleware get the zero Actor, which no policy grants anything to.
func ActorFrom(c *fiber.Ctx) access.Actor {
	actor, _ := c.Locals(actorKey).(access.Actor)
	return actor
}
