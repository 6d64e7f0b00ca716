package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID            int64
	Name          string
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
}

// SellingPrice is the discount price when one is set, the list price otherwise.
func (p Product) SellingPrice() decimal.Decimal {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

type Customer struct {
	ID        int64
	FirstName *string
	LastName  *string
	Phone1    *string
	Phone2    *string
	WilayaID  *int64
	CommuneID *int64
}

type Color struct {
	ID      int64
	Name    string
	HexCode string
}

type Size struct {
	ID   int64
	Name string
}
