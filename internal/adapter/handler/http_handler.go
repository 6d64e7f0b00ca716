package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/core/service"
	"github.com/rl1809/order-backoffice/pkg/metrics"
)

type OrderQuerier interface {
	ListOrders(ctx context.Context, filter domain.OrderFilter) (domain.OrderPage, error)
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, change service.StatusChange) (*domain.Order, error)
}

type Reporter interface {
	DailyOrderCounts(ctx context.Context, start, end *time.Time) (domain.DailySeries, error)
	WeeklySummary(ctx context.Context) (domain.WeeklySummary, error)
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.OrderView, error)
}

// Services groups the core operations exposed over HTTP and gRPC.
type Services struct {
	Queries  OrderQuerier
	Statuses StatusUpdater
	Reports  Reporter
	Orders   OrderPlacer
}

// Option configures the HTTP and gRPC handlers.
type Option func(*options)

type options struct {
	loc *time.Location
}

// WithLocation sets the zone that offset-less dashboard dates are read in.
// It should match the report service's location.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func newOptions(opts []Option) options {
	o := options{loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type HTTPHandler struct {
	svc     Services
	logger  *zap.Logger
	metrics *metrics.ServerMetrics
	loc     *time.Location
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(svc Services, logger *zap.Logger, m *metrics.ServerMetrics, opts ...Option) *HTTPHandler {
	o := newOptions(opts)
	return &HTTPHandler{svc: svc, logger: logger, metrics: m, loc: o.loc}
}

// Routes mounts every endpoint. metricsHandler is served on /metrics when
// not nil.
func (h *HTTPHandler) Routes(metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HealthCheck)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	h.handle(mux, "GET /api/orders", "list_orders", h.ListOrders)
	h.handle(mux, "POST /api/orders", "place_order", h.PlaceOrder)
	h.handle(mux, "GET /api/orders/{id}", "get_order", h.GetOrder)
	h.handle(mux, "PATCH /api/orders/{id}/status", "update_status", h.UpdateStatus)
	h.handle(mux, "GET /api/dashboard/orders", "daily_orders", h.DailyOrders)
	h.handle(mux, "GET /api/dashboard/done", "weekly_summary", h.WeeklySummary)
	return h.requestID(mux)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.OrderFilter{
		StatusName: q.Get("status"),
		Search:     q.Get("search"),
	}

	var err error
	if filter.ProductID, err = queryInt64(q.Get("product_id")); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "invalid product_id"})
		return
	}
	page, err := queryInt64(q.Get("page"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "invalid page"})
		return
	}
	size, err := queryInt64(q.Get("size"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "invalid size"})
		return
	}
	filter.Page, filter.PageSize = int(page), int(size)

	result, err := h.svc.Queries.ListOrders(r.Context(), filter)
	if err != nil {
		h.internalError(w, r, "list orders failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPageDTO(result))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "invalid order id"})
		return
	}

	view, err := h.svc.Orders.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get order failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*view))
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, PlaceOrderHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}
	if req.RequestID == "" {
		req.RequestID = r.Header.Get("Idempotency-Key")
	}

	order, err := h.svc.Orders.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		RequestID:         req.RequestID,
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		CustomerFirstName: req.FirstName,
		CustomerLastName:  req.LastName,
		CustomerPhone:     req.Phone,
		WilayaID:          req.WilayaID,
		CommuneID:         req.CommuneID,
		ColorID:           req.ColorID,
		SizeID:            req.SizeID,
		Comment:           req.Comment,
	})
	if err != nil {
		h.writeError(w, r, "place order failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, PlaceOrderHTTPResponse{
		Success: true,
		Message: "order placed successfully",
		OrderID: order.ID,
	})
}

func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, StatusUpdateResponse{Message: "invalid order id"})
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusUpdateResponse{Message: "invalid request body"})
		return
	}

	order, err := h.svc.Statuses.UpdateStatus(r.Context(), service.StatusChange{
		OrderID:         id,
		StatusID:        req.StatusID,
		ExpectedVersion: req.Version,
	})
	h.metrics.StatusChanges.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		h.writeError(w, r, "update status failed", err)
		return
	}

	writeJSON(w, http.StatusOK, StatusUpdateResponse{
		Success: true,
		Message: "status updated",
		Version: &order.Version,
	})
}

func (h *HTTPHandler) DailyOrders(w http.ResponseWriter, r *http.Request) {
	start, err := parseInstant(r.URL.Query().Get("startDate"), false, h.loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "invalid startDate"})
		return
	}
	end, err := parseInstant(r.URL.Query().Get("endDate"), true, h.loc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "invalid endDate"})
		return
	}

	series, err := h.svc.Reports.DailyOrderCounts(r.Context(), start, end)
	if err != nil {
		h.writeError(w, r, "daily order counts failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailySeriesDTO(series))
}

func (h *HTTPHandler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Reports.WeeklySummary(r.Context())
	if err != nil {
		h.internalError(w, r, "weekly summary failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeeklySummaryDTO(summary))
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, message, soft := softFailure(err)
	if !soft {
		h.internalError(w, r, msg, err)
		return
	}
	writeJSON(w, status, MessageResponse{Success: false, Message: message})
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, zap.String("request_id", w.Header().Get(requestIDHeader)), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, MessageResponse{Success: false, Message: "internal error"})
}

const requestIDHeader = "X-Request-ID"

func (h *HTTPHandler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *HTTPHandler) handle(mux *http.ServeMux, pattern, name string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)

		elapsed := time.Since(start)
		h.metrics.Requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		h.metrics.LatencyMS.WithLabelValues(name).Observe(float64(elapsed.Milliseconds()))
		h.logger.Debug("request served",
			zap.String("handler", name),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", w.Header().Get(requestIDHeader)),
		)
	})
}

func queryInt64(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
