package handler

import (
	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/internal/service"

	"github.com/gofiber/fiber/v2"
)

// HeaderIdempotencyKey lets a client retry order placement safely.
const HeaderIdempotencyKey = "Idempotency-Key"

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type UpdateStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// PlaceOrder turns the caller's cart into a pending order. A replay of an
// earlier placement answers 200 with the original order.
// POST /api/v1/orders
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	order, created, err := h.service.PlaceOrder(c.UserContext(), who, c.Get(HeaderIdempotencyKey))
	if err != nil {
		return respondError(c, err)
	}
	if !created {
		return c.JSON(fiber.Map{"message": "Order already placed", "data": order})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Order placed", "data": order})
}

// GET /api/v1/orders
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	orders, err := h.service.ListOrders(c.UserContext(), who.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": orders})
}

// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	orderID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.service.GetOrder(c.UserContext(), who.UserID, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": order})
}

// POST /api/v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	orderID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.service.CancelOrder(c.UserContext(), who, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order cancelled", "data": order})
}

// ListAllOrders is the admin view, optionally filtered by ?status=
// GET /api/v1/admin/orders
func (h *OrderHandler) ListAllOrders(c *fiber.Ctx) error {
	filter := repository.OrderFilter{Status: model.OrderStatus(c.Query("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		return badRequest(c, "Invalid status")
	}

	orders, err := h.service.ListAllOrders(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": orders})
}

// PUT /api/v1/admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	orderID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if !req.Status.Valid() {
		return badRequest(c, "Invalid status")
	}

	order, err := h.service.UpdateStatus(c.UserContext(), orderID, req.Status, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order status updated", "data": order})
}
