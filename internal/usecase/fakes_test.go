package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"ecshop/internal/domain/event"
	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
	"ecshop/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// =====================
// メモリ上のストア（Txはスナップショットで戻す）
// =====================

type memStore struct {
	mu       sync.Mutex
	products map[string]model.Product
	orders   map[string]model.Order
	audits   []model.AuditLog
	txCount  int
}

func newMemStore(products ...model.Product) *memStore {
	s := &memStore{
		products: map[string]model.Product{},
		orders:   map[string]model.Order{},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	products := make(map[string]model.Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	orders := make(map[string]model.Order, len(s.orders))
	for k, v := range s.orders {
		v.Items = append([]model.OrderItem(nil), v.Items...)
		orders[k] = v
	}
	audits := append([]model.AuditLog(nil), s.audits...)

	if err := fn(memTx{s}); err != nil {
		// rollback
		s.products, s.orders, s.audits = products, orders, audits
		return err
	}
	return nil
}

// Tx外の読み取り用（ProductUsecaseのList/Getなど）
func (s *memStore) productRepo() repo.ProductRepository {
	return lockedProducts{s}
}

func (s *memStore) product(t *testing.T, id string) model.Product {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	require.True(t, ok, "product %s", id)
	return p
}

func (s *memStore) order(t *testing.T, id string) model.Order {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	require.True(t, ok, "order %s", id)
	return o
}

func (s *memStore) auditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog(nil), s.audits...)
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type memTx struct{ s *memStore }

func (t memTx) Orders() repo.OrderRepository         { return memOrders(t) }
func (t memTx) OrderItems() repo.OrderItemRepository { return memOrderItems(t) }
func (t memTx) Inventory() repo.InventoryRepository  { return memInventory(t) }
func (t memTx) Products() repo.ProductRepository     { return memProducts(t) }
func (t memTx) AuditLogs() repo.AuditLogRepository   { return memAudits(t) }

// ---- products ----

type memProducts struct{ s *memStore }

func (r memProducts) alive(id string) (model.Product, bool) {
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, false
	}
	return p, true
}

func (r memProducts) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.s.products {
		if p.DeletedAt.Valid {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))

	start := (q.Page - 1) * q.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + q.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r memProducts) FindByID(ctx context.Context, id string) (model.Product, error) {
	p, ok := r.alive(id)
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindByIDs(ctx context.Context, ids []string, forUpdate bool) ([]model.Product, error) {
	var out []model.Product
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.alive(id); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) FindByName(ctx context.Context, name string) (model.Product, error) {
	for _, p := range r.s.products {
		if !p.DeletedAt.Valid && p.Name == name {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (r memProducts) Create(ctx context.Context, p *model.Product) error {
	if _, err := r.FindByName(ctx, p.Name); err == nil {
		return repo.ErrConflict
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r memProducts) Update(ctx context.Context, id string, patch repo.ProductPatch, actorID string, at time.Time) (model.Product, error) {
	p, ok := r.alive(id)
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Tax != nil {
		p.Tax = *patch.Tax
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	p.UpdatedAt = &at
	p.UpdatedBy = &actorID
	r.s.products[id] = p
	return p, nil
}

func (r memProducts) SoftDelete(ctx context.Context, id string, actorID string, at time.Time) error {
	p, ok := r.alive(id)
	if !ok {
		return repo.ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
	p.DeletedBy = &actorID
	r.s.products[id] = p
	return nil
}

// Tx外ではロックを取ってから読む
type lockedProducts struct{ s *memStore }

func (r lockedProducts) inner() memProducts { return memProducts(r) }

func (r lockedProducts) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.inner().List(ctx, q)
}

func (r lockedProducts) FindByID(ctx context.Context, id string) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.inner().FindByID(ctx, id)
}

func (r lockedProducts) FindByIDs(ctx context.Context, ids []string, forUpdate bool) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.inner().FindByIDs(ctx, ids, forUpdate)
}

func (r lockedProducts) FindByName(ctx context.Context, name string) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.inner().FindByName(ctx, name)
}

func (r lockedProducts) Create(ctx context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.inner().Create(ctx, p)
}

func (r lockedProducts) Update(ctx context.Context, id string, patch repo.ProductPatch, actorID string, at time.Time) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.inner().Update(ctx, id, patch, actorID, at)
}

func (r lockedProducts) SoftDelete(ctx context.Context, id string, actorID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.inner().SoftDelete(ctx, id, actorID, at)
}

// ---- inventory ----

type memInventory struct{ s *memStore }

func (r memInventory) DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error) {
	p, ok := memProducts(r).alive(productID)
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.s.products[productID] = p
	return true, nil
}

func (r memInventory) IncreaseStock(ctx context.Context, productID string, qty int64) error {
	p, ok := memProducts(r).alive(productID)
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	r.s.products[productID] = p
	return nil
}

// ---- orders ----

type memOrders struct{ s *memStore }

func (r memOrders) Create(ctx context.Context, o *model.Order) error {
	if _, ok := r.s.orders[o.ID]; ok {
		return repo.ErrConflict
	}
	stored := *o
	stored.Items = nil
	r.s.orders[o.ID] = stored
	return nil
}

func (r memOrders) FindByID(ctx context.Context, orderID string, forUpdate bool) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	o.Items = append([]model.OrderItem(nil), o.Items...)
	return o, nil
}

func (r memOrders) sorted(keep func(model.Order) bool) []model.Order {
	out := []model.Order{}
	for _, o := range r.s.orders {
		if keep(o) {
			o.Items = append([]model.OrderItem(nil), o.Items...)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memOrders) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.sorted(func(model.Order) bool { return true }), nil
}

func (r memOrders) ListByCreator(ctx context.Context, userID string) ([]model.Order, error) {
	return r.sorted(func(o model.Order) bool { return o.CreatedBy == userID }), nil
}

func (r memOrders) UpdateStatusIfActive(ctx context.Context, orderID string, status model.OrderStatus, actorID string, at time.Time) (bool, error) {
	o, ok := r.s.orders[orderID]
	if !ok || o.Status == model.OrderStatusCancelled {
		return false, nil
	}
	o.Status = status
	o.UpdatedAt = &at
	o.UpdatedBy = &actorID
	r.s.orders[orderID] = o
	return true, nil
}

type memOrderItems struct{ s *memStore }

func (r memOrderItems) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, repo.ErrNotFound)
	}
	for i, it := range items {
		it.OrderID = orderID
		it.Position = i
		o.Items = append(o.Items, it)
	}
	r.s.orders[orderID] = o
	return nil
}

type memAudits struct{ s *memStore }

func (r memAudits) Create(ctx context.Context, log model.AuditLog) error {
	log.ID = int64(len(r.s.audits) + 1)
	r.s.audits = append(r.s.audits, log)
	return nil
}

// =====================
// cache / publisher / id / clock
// =====================

type memCache struct {
	mu          sync.Mutex
	items       map[string]model.Product
	invalidated []string
	getErr      error
}

func newMemCache() *memCache {
	return &memCache{items: map[string]model.Product{}}
}

func (c *memCache) Get(ctx context.Context, id string) (model.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return model.Product{}, false, c.getErr
	}
	p, ok := c.items[id]
	return p, ok, nil
}

func (c *memCache) Set(ctx context.Context, p model.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.ID] = p
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.items, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev event.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []event.OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.OrderEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type seqIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// 呼ばれるたびに1秒進む
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// =====================
// helper
// =====================

var (
	customer      = model.Actor{ID: "user-1", Roles: []model.Role{model.RoleUser}}
	otherCustomer = model.Actor{ID: "user-2", Roles: []model.Role{model.RoleUser}}
	admin         = model.Actor{ID: "admin-1", Roles: []model.Role{model.RoleAdmin}}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertHTTPError(t *testing.T, err error, status int, wantSubstr string) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if !assert.True(t, ok, "err=%v is not HTTPError", err) {
		return
	}
	assert.Equal(t, status, he.Status)
	assert.Contains(t, he.Message, wantSubstr)
}
