package service

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reserve(h *harness, id uuid.UUID, qty int) (*model.Product, error) {
	var out *model.Product
	err := h.store.Transaction(context.Background(), func(tx repository.Store) error {
		p, err := h.ledger.Reserve(context.Background(), tx, id, qty, "test", "tester")
		out = p
		return err
	})
	return out, err
}

func release(h *harness, id uuid.UUID, qty int) (*model.Product, error) {
	var out *model.Product
	err := h.store.Transaction(context.Background(), func(tx repository.Store) error {
		p, err := h.ledger.Release(context.Background(), tx, id, qty, "test", "tester")
		out = p
		return err
	})
	return out, err
}

func TestReserve_DecrementsAndRecordsMovement(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Mug", "12.50", 5)

	got, err := reserve(h, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.True(t, got.IsActive)

	history, err := h.ledger.History(context.Background(), p.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.MovementReserve, history[0].Type)
	assert.Equal(t, 2, history[0].Quantity)
	assert.Equal(t, 3, history[0].StockAfter)
}

func TestReserve_LastUnitDeactivatesProduct(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Lamp", "10", 1)

	got, err := reserve(h, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.False(t, got.IsActive)
}

func TestReserve_Failures(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Desk", "99", 2)

	_, err := reserve(h, p.ID, 3)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = reserve(h, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = reserve(h, p.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = reserve(h, p.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	stock, active := h.stock(t, p.ID)
	assert.Equal(t, 2, stock)
	assert.True(t, active)
}

func TestRelease_NeverReactivates(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Chair", "40", 1)

	_, err := reserve(h, p.ID, 1)
	require.NoError(t, err)

	got, err := release(h, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
	assert.False(t, got.IsActive)
}

func TestRelease_ReachesRetiredProduct(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Vase", "15", 3)

	_, err := reserve(h, p.ID, 2)
	require.NoError(t, err)
	require.NoError(t, h.store.Products().Delete(context.Background(), p.ID, "admin@example.test"))

	got, err := release(h, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)

	_, err = release(h, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestReserve_ConcurrentLastUnit(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Rare print", "10", 1)

	const callers = 32
	var wins, outOfStock int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := reserve(h, p.ID, 1)
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case assert.ErrorIs(t, err, ErrOutOfStock):
				atomic.AddInt32(&outOfStock, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(callers-1), outOfStock)
	stock, active := h.stock(t, p.ID)
	assert.Equal(t, 0, stock)
	assert.False(t, active)
}

func TestReserveRelease_RoundTripAndNonNegative(t *testing.T) {
	h := newHarness(t)
	products := []*model.Product{
		h.product(t, "A", "1", 10),
		h.product(t, "B", "2", 3),
		h.product(t, "C", "3", 0),
	}
	initial := map[uuid.UUID]int{}
	for _, p := range products {
		initial[p.ID] = p.Stock
	}

	rng := rand.New(rand.NewSource(42))
	held := map[uuid.UUID]int{}
	for i := 0; i < 500; i++ {
		p := products[rng.Intn(len(products))]
		qty := rng.Intn(4) + 1
		if rng.Intn(2) == 0 {
			if _, err := reserve(h, p.ID, qty); err == nil {
				held[p.ID] += qty
			} else {
				require.ErrorIs(t, err, ErrOutOfStock)
			}
		} else if held[p.ID] >= qty {
			_, err := release(h, p.ID, qty)
			require.NoError(t, err)
			held[p.ID] -= qty
		}

		for _, q := range products {
			stock, _ := h.stock(t, q.ID)
			require.GreaterOrEqual(t, stock, 0)
			require.Equal(t, initial[q.ID]-held[q.ID], stock)
		}
	}

	for id, qty := range held {
		if qty > 0 {
			_, err := release(h, id, qty)
			require.NoError(t, err)
		}
	}
	for _, p := range products {
		stock, _ := h.stock(t, p.ID)
		assert.Equal(t, initial[p.ID], stock)
	}
}

func TestReserve_RollsBackWithCallerTransaction(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Kettle", "30", 2)

	err := h.store.Transaction(context.Background(), func(tx repository.Store) error {
		if _, err := h.ledger.Reserve(context.Background(), tx, p.ID, 1, "test", "tester"); err != nil {
			return err
		}
		return ErrConcurrencyConflict
	})
	require.ErrorIs(t, err, ErrConcurrencyConflict)

	stock, _ := h.stock(t, p.ID)
	assert.Equal(t, 2, stock)
	history, err := h.ledger.History(context.Background(), p.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRestock(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "Pen", "2", 0)

	got, err := h.ledger.Restock(context.Background(), p.ID, 25, "admin@example.test")
	require.NoError(t, err)
	assert.Equal(t, 25, got.Stock)
	assert.False(t, got.IsActive, "restock leaves reactivation to the admin")
	assert.Equal(t, []string{"restocked"}, h.events.actions("stock_update"))
	assert.Equal(t, []string{""}, h.events.owners("stock_update"))

	_, err = h.ledger.Restock(context.Background(), p.ID, 0, "admin@example.test")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	require.NoError(t, h.store.Products().Delete(context.Background(), p.ID, "admin@example.test"))
	_, err = h.ledger.Restock(context.Background(), p.ID, 5, "admin@example.test")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestHistory_UnknownProduct(t *testing.T) {
	h := newHarness(t)
	_, err := h.ledger.History(context.Background(), uuid.New(), 10)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
