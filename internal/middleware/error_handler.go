package middleware

import (
	"errors"

	"go-storefront/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler replies {"error": message} for anything a handler returned
// instead of writing a response itself.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		kind := apperror.KindOf(err)
		if kind == apperror.KindInternal {
			log.Error("unhandled error",
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals(LocalRequestID)),
				zap.Error(err))
		}
		return c.Status(apperror.HTTPStatus(kind)).JSON(fiber.Map{"error": apperror.PublicMessage(err)})
	}
}
