package handler

import (
	"go-storefront/internal/repository"
	"go-storefront/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CatalogHandler serves the public storefront catalog.
type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// ListProducts returns active products, optionally narrowed by ?category_id=
// GET /api/v1/products
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	filter := repository.ProductFilter{ActiveOnly: true}
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid category_id")
		}
		filter.CategoryID = &id
	}

	products, err := h.service.ListProducts(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": products})
}

// GetProduct returns one listed product
// GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if !product.IsActive {
		return respondError(c, service.ErrProductNotFound)
	}
	return c.JSON(fiber.Map{"data": product})
}

// GET /api/v1/categories
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": categories})
}
