package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facemood/internal/auth"
	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

const (
	// SessionCookie holds the signed HR session token.
	SessionCookie = "hr_session"
	// LocalSession is the key to retrieve *auth.SessionClaims from context
	LocalSession = "hr_session_claims"
)

// SessionValidator is satisfied by *auth.SessionService.
type SessionValidator interface {
	Validate(token string) (*auth.SessionClaims, error)
}

// HRSession rejects requests without a valid hr_session cookie for the HR role.
func HRSession(sessions SessionValidator, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			return domain.ErrUnauthorized
		}

		claims, err := sessions.Validate(token)
		if err != nil {
			if !errors.Is(err, auth.ErrExpiredToken) {
				logger.Warn("invalid HR session", "error", err, "ip", c.IP())
			}
			return domain.ErrUnauthorized
		}
		if claims.Role != domain.RoleHR {
			return domain.ErrForbidden
		}

		c.Locals(LocalSession, claims)
		return c.Next()
	}
}

// GetSession returns the claims stored by HRSession.
func GetSession(c *fiber.Ctx) (*auth.SessionClaims, error) {
	claims, ok := c.Locals(LocalSession).(*auth.SessionClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
