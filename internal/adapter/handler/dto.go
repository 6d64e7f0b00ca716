package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/core/service"
)

type ProductDTO struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice"`
}

type CustomerDTO struct {
	ID        int64   `json:"id"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone1    *string `json:"phone1"`
	Phone2    *string `json:"phone2"`
	WilayaID  *int64  `json:"wilayaId"`
	CommuneID *int64  `json:"communeId"`
}

type LabelDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	HexCode string `json:"hexCode,omitempty"`
}

type OrderDTO struct {
	ID            int64               `json:"id"`
	Product       *ProductDTO         `json:"product"`
	Customer      *CustomerDTO        `json:"customer"`
	Status        *LabelDTO           `json:"status"`
	Color         *LabelDTO           `json:"color"`
	Size          *LabelDTO           `json:"size"`
	Quantity      int                 `json:"quantity"`
	ProductPrice  decimal.NullDecimal `json:"productPrice"`
	SellingPrice  decimal.NullDecimal `json:"sellingPrice"`
	DeliveryPrice decimal.NullDecimal `json:"deliveryPrice"`
	Comment       *string             `json:"comment"`
	Exchange      bool                `json:"exchange"`
	Stopdesk      bool                `json:"stopdesk"`
	CreatedAt     *time.Time          `json:"createdAt"`
	Version       int                 `json:"version"`
}

type OrderPageDTO struct {
	Orders      []OrderDTO `json:"orders"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
	TotalItems  int        `json:"totalItems"`
}

type SeriesDTO struct {
	Name string  `json:"name"`
	Data []int64 `json:"data"`
}

type DailySeriesDTO struct {
	Categories []string    `json:"categories"`
	Series     []SeriesDTO `json:"series"`
}

type TotalsDTO struct {
	TotalDelivered int64           `json:"totalDelivered"`
	TotalReturned  int64           `json:"totalReturned"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
}

type WeeklySummaryDTO struct {
	Totals TotalsDTO `json:"totals"`
}

type StatusUpdateRequest struct {
	OrderID  int64 `json:"order_id,omitempty"`
	StatusID int64 `json:"status_id"`
	Version  *int  `json:"version,omitempty"`
}

type StatusUpdateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Version *int   `json:"version,omitempty"`
}

type PlaceOrderHTTPRequest struct {
	RequestID string `json:"request_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	WilayaID  int64  `json:"wilaya_id"`
	CommuneID int64  `json:"commune_id"`
	ColorID   int64  `json:"color_id"`
	SizeID    int64  `json:"size_id"`
	Comment   string `json:"comment"`
}

type PlaceOrderHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID int64  `json:"order_id,omitempty"`
}

func toOrderDTO(v domain.OrderView) OrderDTO {
	dto := OrderDTO{
		ID:            v.ID,
		Quantity:      v.Quantity,
		ProductPrice:  v.ProductPrice,
		SellingPrice:  v.SellingPrice,
		DeliveryPrice: v.DeliveryPrice,
		Comment:       v.Comment,
		Exchange:      v.Exchange,
		Stopdesk:      v.Stopdesk,
		CreatedAt:     v.CreatedAt,
		Version:       v.Version,
	}
	if p := v.Product; p != nil {
		dto.Product = &ProductDTO{ID: p.ID, Name: p.Name, Price: p.Price, DiscountPrice: p.DiscountPrice}
	}
	if c := v.Customer; c != nil {
		dto.Customer = &CustomerDTO{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Phone1:    c.Phone1,
			Phone2:    c.Phone2,
			WilayaID:  c.WilayaID,
			CommuneID: c.CommuneID,
		}
	}
	if s := v.Status; s != nil {
		dto.Status = &LabelDTO{ID: s.ID, Name: s.Name, HexCode: s.HexCode}
	}
	if c := v.Color; c != nil {
		dto.Color = &LabelDTO{ID: c.ID, Name: c.Name, HexCode: c.HexCode}
	}
	if s := v.Size; s != nil {
		dto.Size = &LabelDTO{ID: s.ID, Name: s.Name}
	}
	return dto
}

func toOrderPageDTO(page domain.OrderPage) OrderPageDTO {
	orders := make([]OrderDTO, len(page.Items))
	for i, v := range page.Items {
		orders[i] = toOrderDTO(v)
	}
	return OrderPageDTO{
		Orders:      orders,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		TotalItems:  page.TotalItems,
	}
}

func toDailySeriesDTO(s domain.DailySeries) DailySeriesDTO {
	return DailySeriesDTO{
		Categories: s.Categories,
		Series:     []SeriesDTO{{Name: "Orders", Data: s.Counts}},
	}
}

func toWeeklySummaryDTO(s domain.WeeklySummary) WeeklySummaryDTO {
	return WeeklySummaryDTO{Totals: TotalsDTO{
		TotalDelivered: s.TotalDelivered,
		TotalReturned:  s.TotalReturned,
		TotalPrice:     s.TotalRevenue,
	}}
}

// softFailure maps service errors that leave state untouched to an HTTP
// status and a client message. ok is false for genuine failures.
func softFailure(err error) (status int, message string, ok bool) {
	var te *service.TransitionError
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound, "order not found", true
	case errors.Is(err, service.ErrStatusNotFound):
		return http.StatusUnprocessableEntity, "status not found", true
	case errors.As(err, &te):
		return http.StatusUnprocessableEntity, te.Error(), true
	case errors.Is(err, service.ErrStaleVersion):
		return http.StatusConflict, "order was modified concurrently", true
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate request", true
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusUnprocessableEntity, "product not found", true
	case errors.Is(err, service.ErrInvalidOrder):
		return http.StatusBadRequest, "missing required fields", true
	case errors.Is(err, service.ErrRangeTooLarge):
		return http.StatusBadRequest, "date range too large", true
	}
	return http.StatusInternalServerError, "internal error", false
}

// outcome labels status change attempts for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, service.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, service.ErrStatusNotFound):
		return "status_not_found"
	case errors.Is(err, service.ErrIllegalTransition):
		return "illegal"
	case errors.Is(err, service.ErrStaleVersion):
		return "stale"
	}
	return "error"
}

// localDateTime is ISO-8601 without an offset.
const localDateTime = "2006-01-02T15:04:05"

// parseInstant accepts RFC 3339 timestamps, offset-less date-times and bare
// dates. The last two are read in loc. A bare date is local midnight, or the
// last instant of that local day when endOfDay is set.
func parseInstant(raw string, endOfDay bool, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation(localDateTime, raw, loc); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
