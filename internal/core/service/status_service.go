package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/port"
)

type StatusChange struct {
	OrderID  int64
	StatusID int64
	// ExpectedVersion rejects the change when the stored order has moved on.
	ExpectedVersion *int
}

// Invalidator drops derived data that depends on order statuses.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type StatusService struct {
	orders      port.OrderRepository
	refs        port.ReferenceRepository
	transitions domain.TransitionTable
	invalidator Invalidator
	logger      *zap.Logger
}

type StatusOption func(*StatusService)

func WithTransitions(table domain.TransitionTable) StatusOption {
	return func(s *StatusService) {
		s.transitions = table
	}
}

func WithStatusInvalidator(inv Invalidator) StatusOption {
	return func(s *StatusService) {
		s.invalidator = inv
	}
}

func NewStatusService(orders port.OrderRepository, refs port.ReferenceRepository, logger *zap.Logger, opts ...StatusOption) *StatusService {
	s := &StatusService{
		orders:      orders,
		refs:        refs,
		transitions: domain.TransitionTable{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateStatus relabels an order. Soft failures leave the order untouched and
// come back as ErrOrderNotFound, ErrStatusNotFound, ErrIllegalTransition or
// ErrStaleVersion. Re-applying the current status succeeds without a write.
func (s *StatusService) UpdateStatus(ctx context.Context, change StatusChange) (*domain.Order, error) {
	log := s.logger.With(zap.Int64("order_id", change.OrderID), zap.Int64("status_id", change.StatusID))

	order, err := s.orders.GetOrder(ctx, change.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		log.Warn("status change for unknown order")
		return nil, ErrOrderNotFound
	}

	target, err := s.refs.GetStatus(ctx, change.StatusID)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if target == nil {
		log.Warn("status change to unknown status")
		return nil, ErrStatusNotFound
	}

	if change.ExpectedVersion != nil && *change.ExpectedVersion != order.Version {
		log.Warn("stale status change", zap.Int("expected", *change.ExpectedVersion), zap.Int("actual", order.Version))
		return nil, ErrStaleVersion
	}

	if order.HasStatus(target.ID) {
		return order, nil
	}

	if err := s.checkTransition(ctx, order, *target); err != nil {
		log.Warn("status change rejected", zap.Error(err))
		return nil, err
	}

	if err := s.orders.UpdateOrderStatus(ctx, order.ID, target.ID, order.Version); err != nil {
		if errors.Is(err, port.ErrOptimisticLock) {
			log.Warn("status change lost a concurrent update")
			return nil, ErrStaleVersion
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order.StatusID = &target.ID
	order.Version++

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	log.Info("order status changed", zap.String("status", target.Name), zap.Int("version", order.Version))
	return order, nil
}

func (s *StatusService) checkTransition(ctx context.Context, order *domain.Order, target domain.Status) error {
	if s.transitions.Permissive() || order.StatusID == nil {
		return nil
	}
	current, err := s.refs.GetStatus(ctx, *order.StatusID)
	if err != nil {
		return fmt.Errorf("get current status: %w", err)
	}
	if current == nil {
		return nil
	}
	if !s.transitions.Allows(current.Name, target.Name) {
		return &TransitionError{From: current.Name, To: target.Name}
	}
	return nil
}
