package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/port"
)

// OrderQueryService lists orders for the back office. Status names resolve
// tolerantly: "all", blank and unknown names all disable the status filter.
type OrderQueryService struct {
	orders   port.OrderRepository
	refs     port.ReferenceRepository
	logger   *zap.Logger
	pageSize int
	pushdown bool
}

type QueryOption func(*OrderQueryService)

func WithDefaultPageSize(size int) QueryOption {
	return func(s *OrderQueryService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithPushdown lets the store execute the filter when it implements
// port.OrderSearcher.
func WithPushdown(enabled bool) QueryOption {
	return func(s *OrderQueryService) {
		s.pushdown = enabled
	}
}

func NewOrderQueryService(orders port.OrderRepository, refs port.ReferenceRepository, logger *zap.Logger, opts ...QueryOption) *OrderQueryService {
	s := &OrderQueryService{
		orders:   orders,
		refs:     refs,
		logger:   logger,
		pageSize: domain.DefaultPageSize,
		pushdown: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderQueryService) ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error) {
	filter = filter.Normalize(s.pageSize)

	statusID, err := s.resolveStatus(ctx, filter)
	if err != nil {
		return domain.OrderPage{}, err
	}

	if searcher, ok := s.orders.(port.OrderSearcher); ok && s.pushdown {
		return s.search(ctx, searcher, statusID, filter)
	}

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}
	views, err := hydrate(ctx, s.refs, orders)
	if err != nil {
		return domain.OrderPage{}, err
	}
	return domain.ApplyFilter(views, statusID, filter), nil
}

func (s *OrderQueryService) search(ctx context.Context, searcher port.OrderSearcher, statusID *int64, filter domain.OrderFilter) (domain.OrderPage, error) {
	orders, total, err := searcher.SearchOrders(ctx, domain.OrderCriteria{
		StatusID:  statusID,
		ProductID: filter.ProductID,
		Search:    filter.SearchTerm(),
		Offset:    filter.Offset(),
		Limit:     filter.PageSize,
	})
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("search orders: %w", err)
	}
	views, err := hydrate(ctx, s.refs, orders)
	if err != nil {
		return domain.OrderPage{}, err
	}
	return domain.OrderPage{
		Items:       views,
		CurrentPage: filter.Page,
		TotalPages:  domain.TotalPages(total, filter.PageSize),
		TotalItems:  total,
	}, nil
}

func (s *OrderQueryService) resolveStatus(ctx context.Context, filter domain.OrderFilter) (*int64, error) {
	if !filter.FiltersStatus() {
		return nil, nil
	}
	statuses, err := s.refs.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	status, ok := domain.FindStatusByName(statuses, filter.StatusName)
	if !ok {
		s.logger.Debug("unknown status filter ignored", zap.String("status", filter.StatusName))
		return nil, nil
	}
	return &status.ID, nil
}
