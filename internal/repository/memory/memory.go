// Package memory is an in-process implementation of repository.Store.
//
// A transaction holds one store-wide mutex for its whole duration and rolls
// back by restoring a snapshot, so every transaction is serializable. It
// exists for tests only; the API always runs on Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type state struct {
	products   map[uuid.UUID]model.Product
	categories map[uuid.UUID]model.Category
	lines      map[uuid.UUID]model.CartLine
	orders     map[uuid.UUID]model.Order
	movements  []model.StockMovement
	last       time.Time
}

func (st *state) clone() *state {
	c := &state{
		products:   make(map[uuid.UUID]model.Product, len(st.products)),
		categories: make(map[uuid.UUID]model.Category, len(st.categories)),
		lines:      make(map[uuid.UUID]model.CartLine, len(st.lines)),
		orders:     make(map[uuid.UUID]model.Order, len(st.orders)),
		movements:  append([]model.StockMovement(nil), st.movements...),
		last:       st.last,
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for k, v := range st.lines {
		c.lines[k] = v
	}
	for k, v := range st.orders {
		v.Lines = append([]model.OrderLine(nil), v.Lines...)
		c.orders[k] = v
	}
	return c
}

// now is strictly increasing so creation order survives equal wall clocks.
func (st *state) now() time.Time {
	t := time.Now()
	if !t.After(st.last) {
		t = st.last.Add(time.Microsecond)
	}
	st.last = t
	return t
}

type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		st: &state{
			products:   make(map[uuid.UUID]model.Product),
			categories: make(map[uuid.UUID]model.Category),
			lines:      make(map[uuid.UUID]model.CartLine),
			orders:     make(map[uuid.UUID]model.Order),
		},
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Products() repository.ProductRepository    { return &productRepo{s} }
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepo{s} }
func (s *Store) Cart() repository.CartRepository           { return &cartRepo{s} }
func (s *Store) Orders() repository.OrderRepository        { return &orderRepo{s} }
func (s *Store) Movements() repository.MovementRepository  { return &movementRepo{s} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock()
	defer unlock()

	snapshot := s.st.clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true}
	if err := fn(tx); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

// attachCategory mimics Preload("Category").
func (s *Store) withCategory(p model.Product) model.Product {
	if p.CategoryID != nil {
		if c, ok := s.st.categories[*p.CategoryID]; ok && !c.DeletedAt.Valid {
			cat := c
			p.Category = &cat
		}
	}
	return p
}

// liveProduct mimics a scoped join: soft-deleted products read as missing.
func (s *Store) liveProduct(id uuid.UUID) *model.Product {
	p, ok := s.st.products[id]
	if !ok || p.DeletedAt.Valid {
		return nil
	}
	return &p
}

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	defer r.s.lock()()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := r.s.st.now()
	product.CreatedAt, product.UpdatedAt = now, now
	stored := *product
	stored.Category = nil
	r.s.st.products[product.ID] = stored
	return nil
}

func (r *productRepo) FindAll(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	defer r.s.lock()()
	var out []model.Product
	for _, p := range r.s.st.products {
		if p.DeletedAt.Valid {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			continue
		}
		out = append(out, r.s.withCategory(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	defer r.s.lock()()
	p := r.s.liveProduct(id)
	if p == nil {
		return nil, gorm.ErrRecordNotFound
	}
	withCat := r.s.withCategory(*p)
	return &withCat, nil
}

func (r *productRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	defer r.s.lock()()
	existing, ok := r.s.st.products[product.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *product
	stored.Category = nil
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = r.s.st.now()
	r.s.st.products[product.ID] = stored
	product.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	defer r.s.lock()()
	p := r.s.liveProduct(id)
	if p == nil {
		return gorm.ErrRecordNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: r.s.st.now(), Valid: true}
	p.DeletedBy = deletedBy
	p.IsActive = false
	r.s.st.products[id] = *p
	return nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*model.Product, bool, error) {
	defer r.s.lock()()
	p := r.s.liveProduct(id)
	if p == nil || p.Stock < qty {
		return nil, false, nil
	}
	p.Stock -= qty
	if p.Stock == 0 {
		p.IsActive = false
	}
	p.UpdatedAt = r.s.st.now()
	r.s.st.products[id] = *p
	out := *p
	return &out, true, nil
}

func (r *productRepo) IncrementStock(ctx context.Context, id uuid.UUID, qty int) (*model.Product, bool, error) {
	defer r.s.lock()()
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, false, nil
	}
	p.Stock += qty
	p.UpdatedAt = r.s.st.now()
	r.s.st.products[id] = p
	out := p
	return &out, true, nil
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	defer r.s.lock()()
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := r.s.st.now()
	category.CreatedAt, category.UpdatedAt = now, now
	r.s.st.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	defer r.s.lock()()
	var out []model.Category
	for _, c := range r.s.st.categories {
		if !c.DeletedAt.Valid {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	defer r.s.lock()()
	c, ok := r.s.st.categories[id]
	if !ok || c.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *model.Category) error {
	defer r.s.lock()()
	existing, ok := r.s.st.categories[category.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = r.s.st.now()
	r.s.st.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	defer r.s.lock()()
	c, ok := r.s.st.categories[id]
	if !ok || c.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	c.DeletedAt = gorm.DeletedAt{Time: r.s.st.now(), Valid: true}
	c.DeletedBy = deletedBy
	r.s.st.categories[id] = c
	return nil
}

type cartRepo struct{ s *Store }

func (r *cartRepo) FindLine(ctx context.Context, userID, lineID uuid.UUID, lock bool) (*model.CartLine, error) {
	defer r.s.lock()()
	l, ok := r.s.st.lines[lineID]
	if !ok || l.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *cartRepo) Increment(ctx context.Context, userID, productID uuid.UUID, qty int) (*model.CartLine, error) {
	defer r.s.lock()()
	for id, l := range r.s.st.lines {
		if l.UserID == userID && l.ProductID == productID {
			l.Quantity += qty
			l.UpdatedAt = r.s.st.now()
			r.s.st.lines[id] = l
			return &l, nil
		}
	}
	now := r.s.st.now()
	l := model.CartLine{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.st.lines[l.ID] = l
	return &l, nil
}

func (r *cartRepo) ListByUser(ctx context.Context, userID uuid.UUID, lock bool) ([]model.CartLine, error) {
	defer r.s.lock()()
	var out []model.CartLine
	for _, l := range r.s.st.lines {
		if l.UserID != userID {
			continue
		}
		l.Product = r.s.liveProduct(l.ProductID)
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *cartRepo) Delete(ctx context.Context, lineID uuid.UUID) error {
	defer r.s.lock()()
	if _, ok := r.s.st.lines[lineID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.st.lines, lineID)
	return nil
}

func (r *cartRepo) DeleteLines(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, id := range lineIDs {
		if l, ok := r.s.st.lines[id]; ok && l.UserID == userID {
			delete(r.s.st.lines, id)
			n++
		}
	}
	return n, nil
}

func (r *cartRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, l := range r.s.st.lines {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	defer r.s.lock()()
	for _, o := range r.s.st.orders {
		if o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
			return gorm.ErrDuplicatedKey
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := r.s.st.now()
	order.CreatedAt, order.UpdatedAt = now, now
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
		order.Lines[i].CreatedAt = now
	}
	r.s.st.orders[order.ID] = r.detach(*order)
	return nil
}

// detach drops preloaded products so stored lines never alias live rows.
func (r *orderRepo) detach(o model.Order) model.Order {
	lines := make([]model.OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		l.Product = nil
		lines[i] = l
	}
	o.Lines = lines
	return o
}

// hydrate mimics Preload("Lines.Product").
func (r *orderRepo) hydrate(o model.Order) model.Order {
	lines := make([]model.OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		l.Product = r.s.liveProduct(l.ProductID)
		lines[i] = l
	}
	o.Lines = lines
	return o
}

func (r *orderRepo) find(match func(model.Order) bool) (*model.Order, error) {
	defer r.s.lock()()
	for _, o := range r.s.st.orders {
		if match(o) {
			h := r.hydrate(o)
			return &h, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.find(func(o model.Order) bool { return o.ID == id })
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepo) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	return r.find(func(o model.Order) bool { return o.UserID == userID && o.IdempotencyKey == key })
}

func (r *orderRepo) FindByPaymentSession(ctx context.Context, sessionID string) (*model.Order, error) {
	return r.find(func(o model.Order) bool { return o.PaymentSessionID != nil && *o.PaymentSessionID == sessionID })
}

func (r *orderRepo) list(match func(model.Order) bool) []model.Order {
	defer r.s.lock()()
	var out []model.Order
	for _, o := range r.s.st.orders {
		if match(o) {
			out = append(out, r.hydrate(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *orderRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.UserID == userID }), nil
}

func (r *orderRepo) FindAll(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return filter.Status == "" || o.Status == filter.Status }), nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, updates map[string]interface{}) (bool, error) {
	defer r.s.lock()()
	o, ok := r.s.st.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if paidAt, ok := updates["paid_at"].(*time.Time); ok {
		o.PaidAt = paidAt
	}
	if paidAt, ok := updates["paid_at"].(time.Time); ok {
		o.PaidAt = &paidAt
	}
	o.UpdatedAt = r.s.st.now()
	r.s.st.orders[id] = o
	return true, nil
}

func (r *orderRepo) ClearPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) (bool, error) {
	defer r.s.lock()()
	o, ok := r.s.st.orders[id]
	if !ok || o.Status != model.OrderPending || o.PaymentSessionID == nil || *o.PaymentSessionID != sessionID {
		return false, nil
	}
	o.PaymentSessionID = nil
	o.PaymentURL = ""
	o.PaymentAttempts++
	o.UpdatedAt = r.s.st.now()
	r.s.st.orders[id] = o
	return true, nil
}

func (r *orderRepo) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID, url string) error {
	defer r.s.lock()()
	o, ok := r.s.st.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for otherID, other := range r.s.st.orders {
		if otherID != id && other.PaymentSessionID != nil && *other.PaymentSessionID == sessionID {
			return gorm.ErrDuplicatedKey
		}
	}
	sid := sessionID
	o.PaymentSessionID = &sid
	o.PaymentURL = url
	o.UpdatedAt = r.s.st.now()
	r.s.st.orders[id] = o
	return nil
}

type movementRepo struct{ s *Store }

func (r *movementRepo) Record(ctx context.Context, movement *model.StockMovement) error {
	defer r.s.lock()()
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	movement.CreatedAt = r.s.st.now()
	r.s.st.movements = append(r.s.st.movements, *movement)
	return nil
}

func (r *movementRepo) FindByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	defer r.s.lock()()
	var out []model.StockMovement
	for i := len(r.s.st.movements) - 1; i >= 0; i-- {
		m := r.s.st.movements[i]
		if m.ProductID != productID {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var _ repository.Store = (*Store)(nil)
