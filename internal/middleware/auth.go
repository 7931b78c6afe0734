// Package middleware provides request identity, logging, tracing and rate
// limiting middleware for the application.
package middleware

import (
	"context"
	"log/slog"
	"strings"

	"look/internal/auth"
	"look/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals written by this package.
const (
	LocalIdentity = "identity"
	LocalUserID   = "userID"
	LocalTraceID  = "traceID"
)

// UserLoader resolves the subject of a verified token.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// IdentifyConfig configures Identify.
type IdentifyConfig struct {
	Tokens *auth.TokenManager
	Users  UserLoader
	// QueryTokenPaths accept ?token= in place of the Authorization header.
	// Browsers cannot set headers on a websocket upgrade.
	QueryTokenPaths []string
}

// Identify verifies the bearer token, if any, and stores the caller's
// auth.Identity in locals. It never rejects a request: a missing, invalid or
// expired token, an unknown subject and a disabled account all leave the
// request anonymous, and the access policy decides what that means.
func Identify(cfg IdentifyConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" && acceptsQueryToken(c.Path(), cfg.QueryTokenPaths) {
			token = c.Query("token")
		}
		if token == "" {
			return c.Next()
		}

		claims, err := cfg.Tokens.Parse(token)
		if err != nil {
			return c.Next()
		}
		userID, err := claims.UserID()
		if err != nil {
			return c.Next()
		}

		ctx := c.UserContext()
		user, err := cfg.Users.GetByID(ctx, userID)
		if err != nil {
			if !models.IsNotFound(err) {
				Logger.WarnContext(ctx, "identity lookup failed",
					slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			}
			return c.Next()
		}
		if !user.CanAuthenticate() {
			return c.Next()
		}

		id := auth.NewIdentity(user)
		c.Locals(LocalIdentity, id)
		c.Locals(LocalUserID, id.UserID)
		c.SetUserContext(context.WithValue(ctx, UserIDKey, id.UserID))
		return c.Next()
	}
}

// IdentityFrom returns the caller resolved by Identify.
func IdentityFrom(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(LocalIdentity).(auth.Identity)
	return id, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, auth.TokenType) {
		return ""
	}
	return strings.TrimSpace(token)
}

func acceptsQueryToken(path string, paths []string) bool {
	for _, p := range paths {
		if path == p {
			return true
		}
	}
	return false
}
