package port

import (
	"context"
	"errors"
	"time"

	"github.com/rl1809/order-backoffice/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder inserts a new order and fills in its assigned ID
	CreateOrder(ctx context.Context, order *domain.Order) error

	// GetOrder retrieves an order by ID, returns nil when it does not exist
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)

	// ListOrders returns every order in store order
	ListOrders(ctx context.Context) ([]domain.Order, error)

	// ListOrdersCreatedBetween returns orders whose createdAt lies in [start, end]
	ListOrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error)

	// UpdateOrderStatus relabels an order with version check for optimistic locking
	UpdateOrderStatus(ctx context.Context, id, statusID int64, version int) error
}

// OrderSearcher is implemented by stores that can execute the listing
// predicates, ordering and paging themselves.
type OrderSearcher interface {
	// SearchOrders returns one page of matching orders and the total match count
	SearchOrders(ctx context.Context, criteria domain.OrderCriteria) ([]domain.Order, int, error)
}

// ErrOptimisticLock is returned by UpdateOrderStatus when the stored version
// no longer matches.
var ErrOptimisticLock = errors.New("optimistic lock conflict")
