package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/port"
)

// hydrate resolves the references of each order. Lookups run concurrently and
// a reference that no longer resolves is left nil.
func hydrate(ctx context.Context, refs port.ReferenceRepository, orders []domain.Order) ([]domain.OrderView, error) {
	views := make([]domain.OrderView, len(orders))
	if len(orders) == 0 {
		return views, nil
	}

	var (
		statuses  []domain.Status
		products  []domain.Product
		colors    []domain.Color
		sizes     []domain.Size
		customers []domain.Customer
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		statuses, err = refs.ListStatuses(gctx)
		return wrap("list statuses", err)
	})
	g.Go(func() (err error) {
		products, err = refs.ListProducts(gctx)
		return wrap("list products", err)
	})
	g.Go(func() (err error) {
		colors, err = refs.ListColors(gctx)
		return wrap("list colors", err)
	})
	g.Go(func() (err error) {
		sizes, err = refs.ListSizes(gctx)
		return wrap("list sizes", err)
	})
	g.Go(func() (err error) {
		customers, err = refs.GetCustomersByIDs(gctx, customerIDs(orders))
		return wrap("get customers", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	statusByID := indexBy(statuses, func(s domain.Status) int64 { return s.ID })
	productByID := indexBy(products, func(p domain.Product) int64 { return p.ID })
	colorByID := indexBy(colors, func(c domain.Color) int64 { return c.ID })
	sizeByID := indexBy(sizes, func(s domain.Size) int64 { return s.ID })
	customerByID := indexBy(customers, func(c domain.Customer) int64 { return c.ID })

	for i, o := range orders {
		views[i] = domain.OrderView{
			Order:    o,
			Product:  lookup(productByID, &o.ProductID),
			Customer: lookup(customerByID, &o.CustomerID),
			Status:   lookup(statusByID, o.StatusID),
			Color:    lookup(colorByID, o.ColorID),
			Size:     lookup(sizeByID, o.SizeID),
		}
	}
	return views, nil
}

func customerIDs(orders []domain.Order) []int64 {
	seen := make(map[int64]struct{}, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.CustomerID]; ok {
			continue
		}
		seen[o.CustomerID] = struct{}{}
		ids = append(ids, o.CustomerID)
	}
	return ids
}

func indexBy[T any](items []T, key func(T) int64) map[int64]T {
	m := make(map[int64]T, len(items))
	for _, item := range items {
		m[key(item)] = item
	}
	return m
}

func lookup[T any](m map[int64]T, id *int64) *T {
	if id == nil {
		return nil
	}
	v, ok := m[*id]
	if !ok {
		return nil
	}
	return &v
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
