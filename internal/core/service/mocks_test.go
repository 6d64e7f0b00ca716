package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/port"
)

// Mock OrderRepository
type mockOrderRepo struct {
	mu      sync.Mutex
	orders  map[int64]domain.Order
	nextID  int64
	writes  int
	listErr error
	// conflictOnce makes the next versioned update lose the race.
	conflictOnce bool
}

func newMockOrderRepo(orders ...domain.Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[int64]domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
		m.nextID = max(m.nextID, o.ID)
	}
	return m
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	m.orders[order.ID] = *order
	m.writes++
	return nil
}

func (m *mockOrderRepo) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *mockOrderRepo) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(), nil
}

func (m *mockOrderRepo) ListOrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Order
	for _, o := range m.sorted() {
		if o.CreatedAt == nil || o.CreatedAt.Before(start) || o.CreatedAt.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateOrderStatus(ctx context.Context, id, statusID int64, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Version != version || m.conflictOnce {
		m.conflictOnce = false
		return port.ErrOptimisticLock
	}
	o.StatusID = &statusID
	o.Version++
	m.orders[id] = o
	m.writes++
	return nil
}

func (m *mockOrderRepo) sorted() []domain.Order {
	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Mock OrderSearcher that records the criteria it was given.
type mockSearchRepo struct {
	*mockOrderRepo
	criteria domain.OrderCriteria
	result   []domain.Order
	total    int
}

func (m *mockSearchRepo) SearchOrders(ctx context.Context, c domain.OrderCriteria) ([]domain.Order, int, error) {
	m.criteria = c
	return m.result, m.total, nil
}

// Mock ReferenceRepository
type mockRefRepo struct {
	mu        sync.Mutex
	statuses  []domain.Status
	products  []domain.Product
	colors    []domain.Color
	sizes     []domain.Size
	customers []domain.Customer
	err       error
}

func (m *mockRefRepo) GetStatus(ctx context.Context, id int64) (*domain.Status, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.statuses {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (m *mockRefRepo) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	return m.statuses, m.err
}

func (m *mockRefRepo) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockRefRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *mockRefRepo) ListColors(ctx context.Context) ([]domain.Color, error) {
	return m.colors, m.err
}

func (m *mockRefRepo) ListSizes(ctx context.Context) ([]domain.Size, error) {
	return m.sizes, m.err
}

func (m *mockRefRepo) GetCustomersByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Customer
	for _, c := range m.customers {
		for _, id := range ids {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m *mockRefRepo) FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if (c.Phone1 != nil && *c.Phone1 == phone) || (c.Phone2 != nil && *c.Phone2 == phone) {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockRefRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = int64(len(m.customers) + 100)
	m.customers = append(m.customers, *c)
	return nil
}

// Mock CacheRepository backed by JSON blobs.
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	values         map[string][]byte
	deleted        []string
	getErr         error
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		idempotencySet: make(map[string]bool),
		values:         make(map[string][]byte),
	}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return false, m.getErr
	}
	raw, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *mockCacheRepo) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *mockCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(ctx context.Context) { c.calls++ }

var errStoreDown = errors.New("store down")

func ptr[T any](v T) *T { return &v }

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}
