package handler

import (
	"go-storefront/internal/service"
	"go-storefront/pkg/apperror"
	"go-storefront/pkg/payment"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookParser verifies a provider notification and decodes it.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*payment.Event, error)
}

type CheckoutHandler struct {
	service service.CheckoutService
	parser  WebhookParser
	log     *zap.Logger
}

// NewCheckoutHandler wires the payment endpoints. parser may be nil when
// payments are not configured.
func NewCheckoutHandler(s service.CheckoutService, parser WebhookParser, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: s, parser: parser, log: log}
}

// Checkout places the order and opens a payment session in one call. When
// the session cannot be created the pending order is still returned so the
// client can retry payment for it.
// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.service.Checkout(c.UserContext(), who, c.Get(HeaderIdempotencyKey))
	if err != nil {
		if result != nil && result.Order != nil {
			return c.Status(apperror.HTTPStatus(apperror.KindOf(err))).JSON(fiber.Map{
				"error": apperror.PublicMessage(err),
				"order": result.Order,
			})
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// POST /api/v1/orders/:id/payment-session
func (h *CheckoutHandler) CreatePaymentSession(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	orderID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.service.CreatePaymentSession(c.UserContext(), who, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// Confirm is hit by the frontend on the provider's success redirect.
// GET /api/v1/checkout/confirm?session_id=
func (h *CheckoutHandler) Confirm(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.service.ConfirmPayment(c.UserContext(), who, c.Query("session_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": order})
}

// Webhook receives provider events. Any processing failure answers 500 so the
// provider redelivers; the service has already logged what needs recovery.
// POST /api/v1/payments/webhook
func (h *CheckoutHandler) Webhook(c *fiber.Ctx) error {
	if h.parser == nil {
		return respondError(c, service.ErrPaymentsDisabled)
	}

	event, err := h.parser.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		h.log.Warn("rejected webhook", zap.Error(err))
		return badRequest(c, "Invalid webhook signature")
	}

	if err := h.service.HandleWebhook(c.UserContext(), event); err != nil {
		h.log.Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook processing failed"})
	}
	return c.JSON(fiber.Map{"received": true})
}
