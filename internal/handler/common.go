package handler

import (
	"go-storefront/internal/middleware"
	"go-storefront/internal/model"
	"go-storefront/internal/service"
	"go-storefront/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError writes {"error": ...} with the status the error kind maps to.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		zap.L().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Locals(middleware.LocalRequestID)),
			zap.Error(err))
	}
	return c.Status(apperror.HTTPStatus(kind)).JSON(fiber.Map{"error": apperror.PublicMessage(err)})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// identity builds the caller from what RequireAuth stored on the request.
func identity(c *fiber.Ctx) (model.Identity, error) {
	raw, _ := c.Locals(middleware.LocalUserID).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return model.Identity{}, service.ErrUnauthenticated
	}
	email, _ := c.Locals(middleware.LocalUserEmail).(string)
	return model.Identity{UserID: id, Email: email}, nil
}

// actor names the caller in audit columns and stock movements.
func actor(c *fiber.Ctx) string {
	if email, ok := c.Locals(middleware.LocalUserEmail).(string); ok && email != "" {
		return email
	}
	if id, ok := c.Locals(middleware.LocalUserID).(string); ok && id != "" {
		return id
	}
	return "system"
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.New(apperror.KindInvalidInput, "Invalid "+name)
	}
	return id, nil
}
