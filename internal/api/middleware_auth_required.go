package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/security"
	"github.com/terraincognita07/mamacare/internal/services"
)

var errSessionClosed = errors.New("session closed")

// AuthRequired resolves the session cookie to an open server-side session
// and stores it in the request locals.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	session, err := handler.authenticateRequest(c)
	if err != nil {
		if c.Cookies(sessionCookieName) != "" {
			handler.clearSessionCookie(c)
		}
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(contextSessionKey, session)
	return c.Next()
}

func (handler *Handler) authenticateRequest(c *fiber.Ctx) (*services.Session, error) {
	rawToken := strings.TrimSpace(c.Cookies(sessionCookieName))
	if rawToken == "" {
		if bearer, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "); ok {
			rawToken = strings.TrimSpace(bearer)
		}
	}
	if rawToken == "" {
		return nil, errors.New("missing session cookie")
	}

	claims, err := security.ParseSessionToken(handler.secretKey, rawToken, handler.now())
	if err != nil {
		return nil, err
	}

	session, ok := handler.deps.Sessions.Get(claims.SessionID)
	if !ok || session.UserID != claims.UserID {
		return nil, errSessionClosed
	}
	return session, nil
}
