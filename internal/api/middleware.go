package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/mamacare/internal/services"
)

const (
	sessionCookieName  = "mamacare_session"
	languageCookieName = "mamacare_lang"
	contextSessionKey  = "current_session"
	contextLanguageKey = "current_language"
)

func currentSession(c *fiber.Ctx) (*services.Session, bool) {
	session, ok := c.Locals(contextSessionKey).(*services.Session)
	return session, ok && session != nil
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}
