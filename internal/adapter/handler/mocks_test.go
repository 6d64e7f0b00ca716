package handler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/core/service"
	"github.com/rl1809/order-backoffice/internal/port"
	"github.com/rl1809/order-backoffice/pkg/metrics"
)

type mockServices struct {
	mock.Mock
}

func (m *mockServices) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.OrderPage), args.Error(1)
}

func (m *mockServices) UpdateStatus(ctx context.Context, change service.StatusChange) (*domain.Order, error) {
	args := m.Called(ctx, change)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *mockServices) DailyOrderCounts(ctx context.Context, start, end *time.Time) (domain.DailySeries, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(domain.DailySeries), args.Error(1)
}

func (m *mockServices) WeeklySummary(ctx context.Context) (domain.WeeklySummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.WeeklySummary), args.Error(1)
}

func (m *mockServices) PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, req)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *mockServices) GetOrder(ctx context.Context, id int64) (*domain.OrderView, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*domain.OrderView)
	return v, args.Error(1)
}

func (m *mockServices) services() Services {
	return Services{Queries: m, Statuses: m, Reports: m, Orders: m}
}

// rangeOrders serves ListOrdersCreatedBetween from a fixed slice so a real
// ReportService can sit behind the handlers.
type rangeOrders struct {
	port.OrderRepository
	orders []domain.Order
}

func (r *rangeOrders) ListOrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		if o.CreatedAt != nil && !o.CreatedAt.Before(start) && !o.CreatedAt.After(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func newTestMetrics(service string) (*metrics.ServerMetrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return metrics.NewServerMetrics(reg, service), reg
}

func ptr[T any](v T) *T { return &v }
