package service

import (
	"context"
	"sync"
	"testing"

	"go-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem_CreatesThenIncrementsLine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Notebook", "4.25", 10)
	alice := shopper("alice@example.test")

	item, err := h.cart.AddItem(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.True(t, item.Available)

	item, err = h.cart.AddItem(ctx, alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, dec("8.50").Equal(item.Subtotal))

	count, err := h.cart.Count(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stock, _ := h.stock(t, p.ID)
	assert.Equal(t, 8, stock)
}

func TestAddItem_OutOfStockLeavesCartUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Sold out", "3", 0)
	bob := shopper("bob@example.test")

	_, err := h.cart.AddItem(ctx, bob, p.ID)
	assert.ErrorIs(t, err, ErrOutOfStock)

	view, err := h.cart.ListItems(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = h.cart.AddItem(ctx, bob, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = h.cart.AddItem(ctx, model.Identity{}, p.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAddItem_LastUnitRace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Last one", "10", 1)
	alice, bob := shopper("alice@example.test"), shopper("bob@example.test")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, who := range []model.Identity{alice, bob} {
		wg.Add(1)
		go func(i int, who model.Identity) {
			defer wg.Done()
			_, errs[i] = h.cart.AddItem(ctx, who, p.ID)
		}(i, who)
	}
	wg.Wait()

	winner, loser := alice, bob
	if errs[0] != nil {
		winner, loser = bob, alice
		assert.ErrorIs(t, errs[0], ErrOutOfStock)
		assert.NoError(t, errs[1])
	} else {
		assert.ErrorIs(t, errs[1], ErrOutOfStock)
	}

	won, err := h.cart.ListItems(ctx, winner.UserID)
	require.NoError(t, err)
	require.Len(t, won.Items, 1)
	assert.Equal(t, 1, won.Items[0].Quantity)

	lost, err := h.cart.ListItems(ctx, loser.UserID)
	require.NoError(t, err)
	assert.Empty(t, lost.Items)

	stock, active := h.stock(t, p.ID)
	assert.Equal(t, 0, stock)
	assert.False(t, active)
}

func TestRemoveItem_RestoresExactlyThatLine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p1 := h.product(t, "Socks", "5", 10)
	p2 := h.product(t, "Hat", "20", 10)
	alice := shopper("alice@example.test")

	h.addN(t, alice, p1.ID, 3)
	h.addN(t, alice, p2.ID, 2)

	view, err := h.cart.ListItems(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	socks := view.Items[0]
	require.Equal(t, p1.ID, socks.ProductID)

	require.NoError(t, h.cart.RemoveItem(ctx, alice, socks.ID))

	stock, _ := h.stock(t, p1.ID)
	assert.Equal(t, 10, stock)
	stock, _ = h.stock(t, p2.ID)
	assert.Equal(t, 8, stock)

	view, err = h.cart.ListItems(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, p2.ID, view.Items[0].ProductID)
	assert.Equal(t, 2, view.Items[0].Quantity)

	err = h.cart.RemoveItem(ctx, alice, socks.ID)
	assert.ErrorIs(t, err, ErrCartLineNotFound)
}

func TestRemoveItem_OtherShoppersLine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Scarf", "18", 4)
	alice, mallory := shopper("alice@example.test"), shopper("mallory@example.test")

	item, err := h.cart.AddItem(ctx, alice, p.ID)
	require.NoError(t, err)

	err = h.cart.RemoveItem(ctx, mallory, item.ID)
	assert.ErrorIs(t, err, ErrCartLineNotFound)

	stock, _ := h.stock(t, p.ID)
	assert.Equal(t, 3, stock)
	count, err := h.cart.Count(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListItems_RetiredProductIsUnavailable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keep := h.product(t, "Keep", "7", 5)
	gone := h.product(t, "Gone", "100", 5)
	alice := shopper("alice@example.test")

	h.addN(t, alice, keep.ID, 2)
	h.addN(t, alice, gone.ID, 1)
	require.NoError(t, h.store.Products().Delete(ctx, gone.ID, "admin@example.test"))

	view, err := h.cart.ListItems(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	assert.True(t, view.Items[0].Available)
	assert.False(t, view.Items[1].Available)
	assert.Nil(t, view.Items[1].Product)
	assert.Equal(t, 1, view.Items[1].Quantity)
	assert.True(t, dec("14").Equal(view.Subtotal))

	// The line can still be removed and its unit goes back on the shelf.
	require.NoError(t, h.cart.RemoveItem(ctx, alice, view.Items[1].ID))
	count, err := h.cart.Count(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
