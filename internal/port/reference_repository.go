package port

import (
	"context"

	"github.com/rl1809/order-backoffice/internal/core/domain"
)

// ReferenceRepository resolves the entities an order points at. Single-entity
// getters return nil when the id does not exist.
type ReferenceRepository interface {
	GetStatus(ctx context.Context, id int64) (*domain.Status, error)
	ListStatuses(ctx context.Context) ([]domain.Status, error)

	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)

	ListColors(ctx context.Context) ([]domain.Color, error)
	ListSizes(ctx context.Context) ([]domain.Size, error)

	GetCustomersByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error)
	FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
}
