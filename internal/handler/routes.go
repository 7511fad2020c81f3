package handler

import (
	"go-storefront/internal/middleware"
	"go-storefront/internal/model"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	Inventory *InventoryHandler
	Cart      *CartHandler
	Order     *OrderHandler
	Checkout  *CheckoutHandler
	Dashboard *DashboardHandler
}

// RegisterRoutes mounts the HTTP API on api (normally /api/v1). requireAuth
// guards shopper and admin routes; checkoutLimit throttles order placement
// and payment session creation.
func RegisterRoutes(api fiber.Router, h Handlers, requireAuth, checkoutLimit fiber.Handler) {
	// Public
	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/validate-token", h.Auth.ValidateToken)

	api.Get("/products", h.Catalog.ListProducts)
	api.Get("/products/:id", h.Catalog.GetProduct)
	api.Get("/categories", h.Catalog.ListCategories)

	api.Post("/payments/webhook", h.Checkout.Webhook)

	// Shopper
	cart := api.Group("/cart", requireAuth)
	cart.Get("/", h.Cart.ListItems)
	cart.Post("/", h.Cart.AddItem)
	cart.Get("/count", h.Cart.Count)
	cart.Delete("/:id", h.Cart.RemoveItem)

	orders := api.Group("/orders", requireAuth)
	orders.Post("/", checkoutLimit, h.Order.PlaceOrder)
	orders.Get("/", h.Order.ListOrders)
	orders.Get("/:id", h.Order.GetOrder)
	orders.Post("/:id/cancel", h.Order.CancelOrder)
	orders.Post("/:id/payment-session", checkoutLimit, h.Checkout.CreatePaymentSession)

	checkout := api.Group("/checkout", requireAuth)
	checkout.Post("/", checkoutLimit, h.Checkout.Checkout)
	checkout.Get("/confirm", h.Checkout.Confirm)

	// Admin
	admin := api.Group("/admin", requireAuth)

	products := admin.Group("/products")
	products.Get("/", middleware.RequireAnyPrivilege(model.PrivProductCreate, model.PrivProductUpdate), h.Inventory.ListProducts)
	products.Post("/", middleware.RequirePrivilege(model.PrivProductCreate), h.Inventory.CreateProduct)
	products.Put("/:id", middleware.RequirePrivilege(model.PrivProductUpdate), h.Inventory.UpdateProduct)
	products.Delete("/:id", middleware.RequirePrivilege(model.PrivProductDelete), h.Inventory.DeleteProduct)
	products.Post("/:id/restock", middleware.RequirePrivilege(model.PrivInventoryRestock), h.Inventory.Restock)
	products.Get("/:id/movements", middleware.RequireAnyPrivilege(model.PrivInventoryRestock, model.PrivDashboardView), h.Inventory.Movements)
	products.Post("/:id/image-upload-url", middleware.RequireAnyPrivilege(model.PrivProductCreate, model.PrivProductUpdate), h.Inventory.ImageUploadURL)

	categories := admin.Group("/categories", middleware.RequirePrivilege(model.PrivCategoryManage))
	categories.Post("/", h.Inventory.CreateCategory)
	categories.Put("/:id", h.Inventory.UpdateCategory)
	categories.Delete("/:id", h.Inventory.DeleteCategory)

	adminOrders := admin.Group("/orders")
	adminOrders.Get("/", middleware.RequirePrivilege(model.PrivOrderViewAll), h.Order.ListAllOrders)
	adminOrders.Put("/:id/status", middleware.RequirePrivilege(model.PrivOrderUpdateStatus), h.Order.UpdateStatus)

	dashboard := admin.Group("/dashboard", middleware.RequirePrivilege(model.PrivDashboardView))
	dashboard.Get("/stats", h.Dashboard.GetDashboardStats)
	dashboard.Get("/stock-movement", h.Dashboard.GetStockMovement)
}
