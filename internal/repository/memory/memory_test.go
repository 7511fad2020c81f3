package memory

import (
	"context"
	"errors"
	"testing"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_RestoresSnapshotOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := &model.Product{Title: "Mug", Price: decimal.NewFromInt(5), Stock: 2, IsActive: true}
	require.NoError(t, s.Products().Create(ctx, p))

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx repository.Store) error {
		_, ok, err := tx.Products().DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		require.True(t, ok)
		_, err = tx.Cart().Increment(ctx, uuid.New(), p.ID, 2)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.True(t, got.IsActive)
}

func TestDecrementStock_Conditional(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := &model.Product{Title: "Lamp", Stock: 1, IsActive: true}
	require.NoError(t, s.Products().Create(ctx, p))

	_, ok, err := s.Products().DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := s.Products().DecrementStock(ctx, p.ID, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, got.Stock)
	assert.False(t, got.IsActive)

	got, ok, err = s.Products().IncrementStock(ctx, p.ID, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got.IsActive)
}

func TestOrderCreate_DuplicateIdempotencyKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.Orders().Create(ctx, &model.Order{UserID: userID, IdempotencyKey: "k"}))
	err := s.Orders().Create(ctx, &model.Order{UserID: userID, IdempotencyKey: "k"})
	assert.True(t, repository.IsUniqueViolation(err))

	require.NoError(t, s.Orders().Create(ctx, &model.Order{UserID: uuid.New(), IdempotencyKey: "k"}))
}

func TestTransaction_HonoursCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Transaction(ctx, func(tx repository.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
