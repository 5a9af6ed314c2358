package api

import "github.com/gofiber/fiber/v2"

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	return apiError(c, fiber.StatusNotFound, "not found")
}

// ErrorHandler is the fiber error handler. Fiber errors keep their status;
// anything else is logged and reported as 500.
func (handler *Handler) ErrorHandler(c *fiber.Ctx, err error) error {
	if fiberErr, ok := err.(*fiber.Error); ok {
		return apiError(c, fiberErr.Code, fiberErr.Message)
	}
	handler.log.Error("unhandled request error", "path", c.Path(), "error", err.Error())
	return apiError(c, fiber.StatusInternalServerError, "internal error")
}
