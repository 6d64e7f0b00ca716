package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/port"
)

type PlaceOrderRequest struct {
	// RequestID deduplicates retries of the same submission. A blank id gets
	// a fresh one, so the request is never treated as a duplicate.
	RequestID         string
	ProductID         int64
	Quantity          int
	CustomerFirstName string
	CustomerLastName  string
	CustomerPhone     string
	WilayaID          int64
	CommuneID         int64
	ColorID           int64
	SizeID            int64
	Comment           string
}

// OrderService takes storefront submissions and serves single-order lookups.
type OrderService struct {
	orders      port.OrderRepository
	refs        port.ReferenceRepository
	cache       port.CacheRepository
	invalidator Invalidator
	now         func() time.Time
	logger      *zap.Logger
}

type OrderOption func(*OrderService)

func WithOrderClock(now func() time.Time) OrderOption {
	return func(s *OrderService) {
		s.now = now
	}
}

func WithOrderInvalidator(inv Invalidator) OrderOption {
	return func(s *OrderService) {
		s.invalidator = inv
	}
}

func NewOrderService(orders port.OrderRepository, refs port.ReferenceRepository, cache port.CacheRepository, logger *zap.Logger, opts ...OrderOption) *OrderService {
	s := &OrderService{
		orders: orders,
		refs:   refs,
		cache:  cache,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	phone := strings.TrimSpace(req.CustomerPhone)
	if req.ProductID <= 0 || phone == "" || req.Quantity < 0 {
		return nil, ErrInvalidOrder
	}
	if req.Quantity == 0 {
		req.Quantity = domain.DefaultQuantity
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ok, err := s.cache.SetIdempotency(ctx, "order:request:"+req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, ErrDuplicateRequest
	}

	product, err := s.refs.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	customer, err := s.findOrCreateCustomer(ctx, phone, req)
	if err != nil {
		return nil, err
	}

	createdAt := s.now()
	order := &domain.Order{
		ProductID:    product.ID,
		CustomerID:   customer.ID,
		Quantity:     req.Quantity,
		ProductPrice: decimal.NewNullDecimal(product.Price),
		SellingPrice: decimal.NewNullDecimal(product.SellingPrice()),
		CreatedAt:    &createdAt,
	}
	if req.ColorID > 0 {
		order.ColorID = &req.ColorID
	}
	if req.SizeID > 0 {
		order.SizeID = &req.SizeID
	}
	if c := strings.TrimSpace(req.Comment); c != "" {
		order.Comment = &c
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	s.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("product_id", order.ProductID),
		zap.Int64("customer_id", order.CustomerID),
		zap.String("request_id", req.RequestID),
	)
	return order, nil
}

func (s *OrderService) findOrCreateCustomer(ctx context.Context, phone string, req PlaceOrderRequest) (*domain.Customer, error) {
	customer, err := s.refs.FindCustomerByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if customer != nil {
		return customer, nil
	}

	customer = &domain.Customer{
		FirstName: optional(req.CustomerFirstName),
		LastName:  optional(req.CustomerLastName),
		Phone1:    &phone,
	}
	if req.WilayaID > 0 {
		customer.WilayaID = &req.WilayaID
	}
	if req.CommuneID > 0 {
		customer.CommuneID = &req.CommuneID
	}
	if err := s.refs.CreateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return customer, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.OrderView, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	views, err := hydrate(ctx, s.refs, []domain.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
