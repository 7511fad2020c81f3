package handler

import (
	"go-storefront/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(s service.CartService) *CartHandler {
	return &CartHandler{service: s}
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

// AddItem reserves one unit of the product for the caller
// POST /api/v1/cart
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if req.ProductID == uuid.Nil {
		return badRequest(c, "product_id is required")
	}

	item, err := h.service.AddItem(c.UserContext(), who, req.ProductID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Added to cart", "data": item})
}

// GET /api/v1/cart
func (h *CartHandler) ListItems(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	view, err := h.service.ListItems(c.UserContext(), who.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": view})
}

// GET /api/v1/cart/count
func (h *CartHandler) Count(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	count, err := h.service.Count(c.UserContext(), who.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// RemoveItem drops the line and returns its quantity to stock
// DELETE /api/v1/cart/:id
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	who, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	lineID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.RemoveItem(c.UserContext(), who, lineID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Removed from cart"})
}
