package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/order-backoffice/internal/core/domain"
)

type memoryCache struct {
	values map[string][]byte
	err    error
}

func (m *memoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func (m *memoryCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	raw, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memoryCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

type mockReferenceRepo struct {
	mock.Mock
}

func (m *mockReferenceRepo) GetStatus(ctx context.Context, id int64) (*domain.Status, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*domain.Status)
	return s, args.Error(1)
}

func (m *mockReferenceRepo) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Status), args.Error(1)
}

func (m *mockReferenceRepo) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *mockReferenceRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockReferenceRepo) ListColors(ctx context.Context) ([]domain.Color, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Color), args.Error(1)
}

func (m *mockReferenceRepo) ListSizes(ctx context.Context) ([]domain.Size, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Size), args.Error(1)
}

func (m *mockReferenceRepo) GetCustomersByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *mockReferenceRepo) FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	args := m.Called(ctx, phone)
	c, _ := args.Get(0).(*domain.Customer)
	return c, args.Error(1)
}

func (m *mockReferenceRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func TestCachedReferenceRepository_ListStatusesHitsStoreOnce(t *testing.T) {
	ctx := context.Background()
	next := &mockReferenceRepo{}
	next.On("ListStatuses", ctx).Return([]domain.Status{{ID: 1, Name: "pending"}, {ID: 2, Name: "delivered"}}, nil).Once()

	repo := NewCachedReferenceRepository(next, &memoryCache{values: map[string][]byte{}}, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		statuses, err := repo.ListStatuses(ctx)
		require.NoError(t, err)
		assert.Len(t, statuses, 2)
	}

	s, err := repo.GetStatus(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "delivered", s.Name)
	next.AssertExpectations(t)
}

func TestCachedReferenceRepository_GetStatusMissFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	next := &mockReferenceRepo{}
	next.On("ListStatuses", ctx).Return([]domain.Status{{ID: 1, Name: "pending"}}, nil)
	next.On("GetStatus", ctx, int64(7)).Return(nil, nil)

	repo := NewCachedReferenceRepository(next, &memoryCache{values: map[string][]byte{}}, time.Minute, zap.NewNop())

	s, err := repo.GetStatus(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, s)
	next.AssertExpectations(t)
}

func TestCachedReferenceRepository_CacheErrorFallsThrough(t *testing.T) {
	ctx := context.Background()
	next := &mockReferenceRepo{}
	next.On("ListColors", ctx).Return([]domain.Color{{ID: 1, Name: "Red"}}, nil).Twice()

	repo := NewCachedReferenceRepository(next, &memoryCache{values: map[string][]byte{}, err: errors.New("redis down")}, time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		colors, err := repo.ListColors(ctx)
		require.NoError(t, err)
		assert.Len(t, colors, 1)
	}
	next.AssertExpectations(t)
}

func TestCachedReferenceRepository_Invalidate(t *testing.T) {
	ctx := context.Background()
	next := &mockReferenceRepo{}
	next.On("ListSizes", ctx).Return([]domain.Size{{ID: 1, Name: "M"}}, nil).Twice()
	cache := &memoryCache{values: map[string][]byte{}}

	repo := NewCachedReferenceRepository(next, cache, time.Minute, zap.NewNop())

	_, err := repo.ListSizes(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Invalidate(ctx))
	assert.Empty(t, cache.values)
	_, err = repo.ListSizes(ctx)
	require.NoError(t, err)
	next.AssertExpectations(t)
}

func TestCachedReferenceRepository_CustomersBypassCache(t *testing.T) {
	ctx := context.Background()
	next := &mockReferenceRepo{}
	next.On("FindCustomerByPhone", ctx, "0550").Return(&domain.Customer{ID: 3}, nil).Twice()

	repo := NewCachedReferenceRepository(next, &memoryCache{values: map[string][]byte{}}, time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		c, err := repo.FindCustomerByPhone(ctx, "0550")
		require.NoError(t, err)
		assert.Equal(t, int64(3), c.ID)
	}
	next.AssertExpectations(t)
}
