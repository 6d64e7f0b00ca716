package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/order-backoffice/internal/core/domain"
)

func newIntake(t *testing.T) (*OrderService, *mockOrderRepo, *mockRefRepo, *countingInvalidator) {
	t.Helper()
	repo := newMockOrderRepo()
	refs := fixtureRefs()
	refs.products = []domain.Product{
		{ID: 10, Name: "Scarf", Price: decimal.NewFromInt(2500), DiscountPrice: decimal.NewNullDecimal(decimal.NewFromInt(2000))},
		{ID: 11, Name: "Hat", Price: decimal.NewFromInt(1200)},
	}
	inv := &countingInvalidator{}
	svc := NewOrderService(repo, refs, newMockCacheRepo(), zap.NewNop(),
		WithOrderClock(fixedClock("2024-06-01T10:00:00Z")),
		WithOrderInvalidator(inv))
	return svc, repo, refs, inv
}

func TestPlaceOrder_Success(t *testing.T) {
	svc, repo, _, inv := newIntake(t)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		RequestID:         "req-1",
		ProductID:         10,
		CustomerFirstName: "Amina",
		CustomerPhone:     "0550111222",
		ColorID:           5,
		Comment:           "  call before noon ",
	})
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Equal(t, int64(1), order.CustomerID, "existing customer is reused")
	assert.Equal(t, domain.DefaultQuantity, order.Quantity)
	assert.True(t, decimal.NewFromInt(2500).Equal(order.ProductPrice.Decimal))
	assert.True(t, decimal.NewFromInt(2000).Equal(order.SellingPrice.Decimal))
	require.NotNil(t, order.ColorID)
	assert.Equal(t, int64(5), *order.ColorID)
	assert.Nil(t, order.SizeID)
	assert.Equal(t, "call before noon", *order.Comment)
	assert.Equal(t, *at("2024-06-01T10:00:00Z"), *order.CreatedAt)
	assert.Nil(t, order.StatusID)

	assert.Equal(t, 1, repo.writes)
	assert.Equal(t, 1, inv.calls)
}

func TestPlaceOrder_ListPriceWithoutDiscount(t *testing.T) {
	svc, _, _, _ := newIntake(t)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{ProductID: 11, CustomerPhone: "0550111222", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, order.Quantity)
	assert.True(t, decimal.NewFromInt(1200).Equal(order.SellingPrice.Decimal))
}

func TestPlaceOrder_CreatesCustomer(t *testing.T) {
	svc, _, refs, _ := newIntake(t)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		ProductID:         11,
		CustomerFirstName: "Yacine",
		CustomerLastName:  "Belkacem",
		CustomerPhone:     "0770123456",
		WilayaID:          16,
	})
	require.NoError(t, err)

	created, err := refs.FindCustomerByPhone(context.Background(), "0770123456")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, created.ID, order.CustomerID)
	assert.Equal(t, "Belkacem", *created.LastName)
	assert.Equal(t, int64(16), *created.WilayaID)
	assert.Nil(t, created.CommuneID)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	svc, repo, _, _ := newIntake(t)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{ProductID: 404, CustomerPhone: "0550111222"})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Zero(t, repo.writes)
}

func TestPlaceOrder_Invalid(t *testing.T) {
	svc, _, _, _ := newIntake(t)

	cases := map[string]PlaceOrderRequest{
		"no product":        {CustomerPhone: "0550111222"},
		"no phone":          {ProductID: 10, CustomerPhone: "   "},
		"negative quantity": {ProductID: 10, CustomerPhone: "0550111222", Quantity: -1},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidOrder)
		})
	}
}

func TestPlaceOrder_DuplicateRequest(t *testing.T) {
	svc, repo, _, _ := newIntake(t)
	req := PlaceOrderRequest{RequestID: "req-dup", ProductID: 10, CustomerPhone: "0550111222"}

	var (
		wg      sync.WaitGroup
		success int64
		dupes   int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), req)
			if err == nil {
				atomic.AddInt64(&success, 1)
			} else if assert.ErrorIs(t, err, ErrDuplicateRequest) {
				atomic.AddInt64(&dupes, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), success)
	assert.Equal(t, int64(19), dupes)
	assert.Equal(t, 1, repo.writes)
}

func TestGetOrder(t *testing.T) {
	svc, _, _, _ := newIntake(t)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, PlaceOrderRequest{ProductID: 10, CustomerPhone: "0550111222", SizeID: 77})
	require.NoError(t, err)

	view, err := svc.GetOrder(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.ID, view.ID)
	require.NotNil(t, view.Product)
	assert.Equal(t, "Scarf", view.Product.Name)
	require.NotNil(t, view.Customer)
	assert.Nil(t, view.Size, "dangling size reference stays unresolved")

	_, err = svc.GetOrder(ctx, 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
