package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/core/service"
	"github.com/rl1809/order-backoffice/pkg/metrics"
)

// CodecName is the gRPC content-subtype carrying JSON messages. Clients
// select it with grpc.CallContentSubtype(CodecName).
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type ListOrdersRequest struct {
	Status    string `json:"status"`
	ProductID int64  `json:"product_id"`
	Search    string `json:"search"`
	Page      int    `json:"page"`
	Size      int    `json:"size"`
}

type DailyOrderCountsRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type WeeklySummaryRequest struct{}

// OrderServiceServer is the back-office RPC surface.
type OrderServiceServer interface {
	ListOrders(ctx context.Context, req *ListOrdersRequest) (*OrderPageDTO, error)
	UpdateStatus(ctx context.Context, req *StatusUpdateRequest) (*StatusUpdateResponse, error)
	DailyOrderCounts(ctx context.Context, req *DailyOrderCountsRequest) (*DailySeriesDTO, error)
	WeeklySummary(ctx context.Context, req *WeeklySummaryRequest) (*WeeklySummaryDTO, error)
}

const serviceName = "backoffice.OrderService"

var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListOrders", OrderServiceServer.ListOrders),
		unary("UpdateStatus", OrderServiceServer.UpdateStatus),
		unary("DailyOrderCounts", OrderServiceServer.DailyOrderCounts),
		unary("WeeklySummary", OrderServiceServer.WeeklySummary),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "backoffice.json",
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(OrderServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(OrderServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(OrderServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type GRPCHandler struct {
	svc     Services
	logger  *zap.Logger
	metrics *metrics.ServerMetrics
	loc     *time.Location
}

func NewGRPCHandler(svc Services, logger *zap.Logger, m *metrics.ServerMetrics, opts ...Option) *GRPCHandler {
	o := newOptions(opts)
	return &GRPCHandler{svc: svc, logger: logger, metrics: m, loc: o.loc}
}

func (h *GRPCHandler) ListOrders(ctx context.Context, req *ListOrdersRequest) (*OrderPageDTO, error) {
	page, err := h.svc.Queries.ListOrders(ctx, domain.OrderFilter{
		StatusName: req.Status,
		ProductID:  req.ProductID,
		Search:     req.Search,
		Page:       req.Page,
		PageSize:   req.Size,
	})
	if err != nil {
		h.logger.Error("list orders failed", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	dto := toOrderPageDTO(page)
	return &dto, nil
}

// UpdateStatus reports soft failures in the response body, not as RPC errors.
func (h *GRPCHandler) UpdateStatus(ctx context.Context, req *StatusUpdateRequest) (*StatusUpdateResponse, error) {
	order, err := h.svc.Statuses.UpdateStatus(ctx, service.StatusChange{
		OrderID:         req.OrderID,
		StatusID:        req.StatusID,
		ExpectedVersion: req.Version,
	})
	h.metrics.StatusChanges.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		_, message, soft := softFailure(err)
		if !soft {
			h.logger.Error("update status failed", zap.Error(err))
			return nil, status.Error(codes.Internal, "internal error")
		}
		return &StatusUpdateResponse{Success: false, Message: message}, nil
	}

	return &StatusUpdateResponse{
		Success: true,
		Message: "status updated",
		Version: &order.Version,
	}, nil
}

func (h *GRPCHandler) DailyOrderCounts(ctx context.Context, req *DailyOrderCountsRequest) (*DailySeriesDTO, error) {
	start, err := parseInstant(req.StartDate, false, h.loc)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid startDate")
	}
	end, err := parseInstant(req.EndDate, true, h.loc)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid endDate")
	}

	series, err := h.svc.Reports.DailyOrderCounts(ctx, start, end)
	if errors.Is(err, service.ErrRangeTooLarge) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err != nil {
		h.logger.Error("daily order counts failed", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	dto := toDailySeriesDTO(series)
	return &dto, nil
}

func (h *GRPCHandler) WeeklySummary(ctx context.Context, _ *WeeklySummaryRequest) (*WeeklySummaryDTO, error) {
	summary, err := h.svc.Reports.WeeklySummary(ctx)
	if err != nil {
		h.logger.Error("weekly summary failed", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	dto := toWeeklySummaryDTO(summary)
	return &dto, nil
}

// UnaryInterceptor records request metrics per method.
func (h *GRPCHandler) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	elapsed := time.Since(start)
	h.metrics.Requests.WithLabelValues(info.FullMethod, strconv.Itoa(int(code))).Inc()
	h.metrics.LatencyMS.WithLabelValues(info.FullMethod).Observe(float64(elapsed.Milliseconds()))
	h.logger.Debug("rpc served", zap.String("method", info.FullMethod), zap.Stringer("code", code), zap.Duration("elapsed", elapsed))
	return resp, err
}

// OrderServiceClient calls OrderServiceServer over a JSON-coded connection.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) ListOrders(ctx context.Context, req *ListOrdersRequest, opts ...grpc.CallOption) (*OrderPageDTO, error) {
	out := new(OrderPageDTO)
	if err := c.invoke(ctx, "ListOrders", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) UpdateStatus(ctx context.Context, req *StatusUpdateRequest, opts ...grpc.CallOption) (*StatusUpdateResponse, error) {
	out := new(StatusUpdateResponse)
	if err := c.invoke(ctx, "UpdateStatus", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) DailyOrderCounts(ctx context.Context, req *DailyOrderCountsRequest, opts ...grpc.CallOption) (*DailySeriesDTO, error) {
	out := new(DailySeriesDTO)
	if err := c.invoke(ctx, "DailyOrderCounts", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) WeeklySummary(ctx context.Context, opts ...grpc.CallOption) (*WeeklySummaryDTO, error) {
	out := new(WeeklySummaryDTO)
	if err := c.invoke(ctx, "WeeklySummary", &WeeklySummaryRequest{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}
