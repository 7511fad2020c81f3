package handler

import (
	"go-storefront/internal/repository"
	"go-storefront/internal/service"

	"github.com/gofiber/fiber/v2"
)

// InventoryHandler is the admin side of the catalog: products, stock and
// categories.
type InventoryHandler struct {
	catalog service.CatalogService
	ledger  service.InventoryLedger
}

func NewInventoryHandler(catalog service.CatalogService, ledger service.InventoryLedger) *InventoryHandler {
	return &InventoryHandler{catalog: catalog, ledger: ledger}
}

type RestockRequest struct {
	Quantity int `json:"quantity"`
}

type ImageUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// ListProducts includes unlisted products.
// GET /api/v1/admin/products
func (h *InventoryHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListProducts(c.UserContext(), repository.ProductFilter{})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": products})
}

// POST /api/v1/admin/products
func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), in, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

// PUT /api/v1/admin/products/:id
func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), id, in, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

// DELETE /api/v1/admin/products/:id
func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.catalog.DeleteProduct(c.UserContext(), id, actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// POST /api/v1/admin/products/:id/restock
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.ledger.Restock(c.UserContext(), id, req.Quantity, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock updated", "data": product})
}

// Movements lists the stock history of a product, newest first.
// GET /api/v1/admin/products/:id/movements?limit=
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	movements, err := h.ledger.History(c.UserContext(), id, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": movements})
}

// POST /api/v1/admin/products/:id/image-upload-url
func (h *InventoryHandler) ImageUploadURL(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req ImageUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	upload, err := h.catalog.ImageUploadURL(c.UserContext(), id, req.Filename, req.ContentType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": upload})
}

// POST /api/v1/admin/categories
func (h *InventoryHandler) CreateCategory(c *fiber.Ctx) error {
	var in service.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	category, err := h.catalog.CreateCategory(c.UserContext(), in, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Category created", "data": category})
}

// PUT /api/v1/admin/categories/:id
func (h *InventoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in service.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	category, err := h.catalog.UpdateCategory(c.UserContext(), id, in, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category updated", "data": category})
}

// DeleteCategory leaves products that referenced it untouched.
// DELETE /api/v1/admin/categories/:id
func (h *InventoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.catalog.DeleteCategory(c.UserContext(), id, actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted"})
}
