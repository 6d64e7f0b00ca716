package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultQuantity = 1

// Order references every related entity by id. Hydration into an OrderView
// happens at the boundary.
type Order struct {
	ID            int64
	ProductID     int64
	CustomerID    int64
	ColorID       *int64
	SizeID        *int64
	StatusID      *int64
	Quantity      int
	ProductPrice  decimal.NullDecimal
	SellingPrice  decimal.NullDecimal
	DeliveryPrice decimal.NullDecimal
	Comment       *string
	Exchange      bool
	Stopdesk      bool
	CreatedAt     *time.Time
	Version       int // optimistic locking
}

type OrderView struct {
	Order
	Product  *Product
	Customer *Customer
	Status   *Status
	Color    *Color
	Size     *Size
}

func (o Order) HasStatus(statusID int64) bool {
	return o.StatusID != nil && *o.StatusID == statusID
}
