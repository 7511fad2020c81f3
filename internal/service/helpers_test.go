package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go-storefront/internal/model"
	"go-storefront/internal/repository/memory"
	"go-storefront/internal/ws"
	"go-storefront/pkg/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (p *recordingPublisher) Publish(e ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) actions(eventType string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e.Action)
		}
	}
	return out
}

func (p *recordingPublisher) owners(eventType string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e.Owner)
		}
	}
	return out
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]uuid.UUID)}
}

func (c *fakeCache) Lookup(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.entries[userID.String()+key]
	return id, ok
}

func (c *fakeCache) Remember(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID.String()+key] = orderID
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []payment.SessionRequest
	sessions map[string]*payment.Session
	err      error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]*payment.Session)}
}

func (p *fakeProvider) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.requests = append(p.requests, req)
	// Like the real provider, a repeated idempotency key returns the
	// original session.
	id := "cs_test_" + strings.TrimPrefix(req.IdempotencyKey, "checkout-")
	if sess, ok := p.sessions[id]; ok {
		out := *sess
		return &out, nil
	}
	sess := &payment.Session{
		ID:      id,
		URL:     "https://checkout.example.test/" + id,
		OrderID: req.OrderID,
		UserID:  req.UserID,
	}
	p.sessions[id] = sess
	return sess, nil
}

func (p *fakeProvider) GetSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	out := *sess
	return &out, nil
}

func (p *fakeProvider) markPaid(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sessionID].Paid = true
}

func (p *fakeProvider) expire(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sessionID].Expired = true
}

type harness struct {
	store    *memory.Store
	events   *recordingPublisher
	cache    *fakeCache
	provider *fakeProvider
	ledger   InventoryLedger
	cart     CartService
	orders   OrderService
	checkout CheckoutService
	catalog  CatalogService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop()
	h := &harness{
		store:    memory.New(),
		events:   &recordingPublisher{},
		cache:    newFakeCache(),
		provider: newFakeProvider(),
	}
	h.ledger = NewInventoryLedger(h.store, h.events, log)
	h.cart = NewCartService(h.store, h.ledger, log)
	h.orders = NewOrderService(h.store, h.ledger, h.cache, h.events, log)
	h.checkout = NewCheckoutService(h.orders, h.store, h.provider, h.events,
		CheckoutConfig{FrontendURL: "https://shop.example.test/", Currency: "usd"}, log)
	h.catalog = NewCatalogService(h.store, h.ledger, nil, log)
	return h
}

func (h *harness) product(t *testing.T, title, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: stock > 0,
	}
	require.NoError(t, h.store.Products().Create(context.Background(), p))
	return p
}

func (h *harness) stock(t *testing.T, id uuid.UUID) (int, bool) {
	t.Helper()
	p, err := h.store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock, p.IsActive
}

func (h *harness) addN(t *testing.T, who model.Identity, productID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := h.cart.AddItem(context.Background(), who, productID)
		require.NoError(t, err)
	}
}

func shopper(email string) model.Identity {
	return model.Identity{UserID: uuid.New(), Email: email}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
