package service

import (
	"context"
	"testing"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cat, err := h.catalog.CreateCategory(ctx, CategoryInput{Name: " Kitchen "}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", cat.Name)

	p, err := h.catalog.CreateProduct(ctx, ProductInput{
		Title:      "Teapot",
		Price:      dec("24.90"),
		Stock:      6,
		CategoryID: &cat.ID,
	}, "admin")
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, "admin", p.CreatedBy)

	history, err := h.ledger.History(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.MovementAdjust, history[0].Type)
	assert.Equal(t, 6, history[0].StockAfter)

	got, err := h.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Kitchen", got.Category.Name)
}

func TestCreateProduct_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	missing := uuid.New()

	cases := map[string]ProductInput{
		"missing title":    {Title: "  ", Price: dec("1")},
		"negative price":   {Title: "x", Price: dec("-1")},
		"sub-cent price":   {Title: "x", Price: dec("1.001")},
		"negative stock":   {Title: "x", Price: dec("1"), Stock: -1},
		"unknown category": {Title: "x", Price: dec("1"), CategoryID: &missing},
	}
	for name, in := range cases {
		_, err := h.catalog.CreateProduct(ctx, in, "admin")
		assert.Error(t, err, name)
	}

	_, err := h.catalog.CreateProduct(ctx, cases["unknown category"], "admin")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	_, err = h.catalog.CreateProduct(ctx, cases["negative price"], "admin")
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	all, err := h.catalog.ListProducts(ctx, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateProduct_AdjustsStockAndReactivates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Lamp", "10", 1)
	alice := shopper("alice@example.test")
	h.addN(t, alice, p.ID, 1)

	_, active := h.stock(t, p.ID)
	require.False(t, active)

	yes := true
	updated, err := h.catalog.UpdateProduct(ctx, p.ID, ProductInput{
		Title:    "Desk lamp",
		Price:    dec("12"),
		Stock:    4,
		IsActive: &yes,
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Stock)
	assert.True(t, updated.IsActive)
	assert.Equal(t, "Desk lamp", updated.Title)

	history, err := h.ledger.History(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.MovementAdjust, history[0].Type)
	assert.Equal(t, 4, history[0].Quantity)

	listed, err := h.catalog.ListProducts(ctx, repository.ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = h.catalog.UpdateProduct(ctx, uuid.New(), ProductInput{Title: "x", Price: dec("1")}, "admin")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProduct_HidesFromCatalog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Old", "3", 2)

	require.NoError(t, h.catalog.DeleteProduct(ctx, p.ID, "admin"))
	_, err := h.catalog.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, h.catalog.DeleteProduct(ctx, p.ID, "admin"), ErrProductNotFound)
}

func TestDeleteCategory_DoesNotCascade(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cat, err := h.catalog.CreateCategory(ctx, CategoryInput{Name: "Garden"}, "admin")
	require.NoError(t, err)
	p, err := h.catalog.CreateProduct(ctx, ProductInput{Title: "Hose", Price: dec("15"), Stock: 1, CategoryID: &cat.ID}, "admin")
	require.NoError(t, err)

	require.NoError(t, h.catalog.DeleteCategory(ctx, cat.ID, "admin"))

	got, err := h.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)
	assert.Nil(t, got.Category)

	assert.ErrorIs(t, h.catalog.DeleteCategory(ctx, cat.ID, "admin"), ErrCategoryNotFound)
	_, err = h.catalog.UpdateCategory(ctx, cat.ID, CategoryInput{Name: "Yard"}, "admin")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestImageUploadURL_Disabled(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Frame", "9", 1)
	_, err := h.catalog.ImageUploadURL(context.Background(), p.ID, "frame.jpg", "image/jpeg")
	assert.ErrorIs(t, err, ErrUploadsDisabled)
}
