package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/port"
)

const (
	dailyWindow  = 30 * 24 * time.Hour
	weeklyWindow = 7 * 24 * time.Hour

	weeklySummaryKey = "report:weekly"
)

type ReportService struct {
	orders port.OrderRepository
	refs   port.ReferenceRepository
	cache  port.CacheRepository
	ttl    time.Duration
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

type ReportOption func(*ReportService)

func WithClock(now func() time.Time) ReportOption {
	return func(s *ReportService) {
		s.now = now
	}
}

func WithLocation(loc *time.Location) ReportOption {
	return func(s *ReportService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithCache keeps the weekly summary in the cache for ttl.
func WithCache(cache port.CacheRepository, ttl time.Duration) ReportOption {
	return func(s *ReportService) {
		s.cache = cache
		s.ttl = ttl
	}
}

func NewReportService(orders port.OrderRepository, refs port.ReferenceRepository, logger *zap.Logger, opts ...ReportOption) *ReportService {
	s := &ReportService{
		orders: orders,
		refs:   refs,
		now:    time.Now,
		loc:    time.UTC,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DailyOrderCounts counts orders per calendar day over [start, end]. A nil
// start defaults to 30 days ago and a nil end to now. Every day of the range
// is present in the result, including days without orders. Ranges longer
// than domain.MaxSeriesDays fail with ErrRangeTooLarge before the store is
// read.
func (s *ReportService) DailyOrderCounts(ctx context.Context, start, end *time.Time) (domain.DailySeries, error) {
	now := s.now()
	from, to := now.Add(-dailyWindow), now
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	if from.After(to) {
		return domain.DailySeries{Categories: []string{}, Counts: []int64{}}, nil
	}
	if days := domain.DaysInRange(from, to, s.loc); days > domain.MaxSeriesDays {
		return domain.DailySeries{}, fmt.Errorf("%w: %d days, at most %d", ErrRangeTooLarge, days, domain.MaxSeriesDays)
	}

	orders, err := s.orders.ListOrdersCreatedBetween(ctx, from, to)
	if err != nil {
		return domain.DailySeries{}, fmt.Errorf("list orders between: %w", err)
	}
	return domain.BucketByDay(orders, from, to, s.loc), nil
}

// WeeklySummary covers the last seven days.
func (s *ReportService) WeeklySummary(ctx context.Context) (domain.WeeklySummary, error) {
	if s.cache != nil {
		var cached domain.WeeklySummary
		hit, err := s.cache.GetJSON(ctx, weeklySummaryKey, &cached)
		if err != nil {
			s.logger.Warn("weekly summary cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	now := s.now()
	orders, err := s.orders.ListOrdersCreatedBetween(ctx, now.Add(-weeklyWindow), now)
	if err != nil {
		return domain.WeeklySummary{}, fmt.Errorf("list orders between: %w", err)
	}
	statuses, err := s.refs.ListStatuses(ctx)
	if err != nil {
		return domain.WeeklySummary{}, fmt.Errorf("list statuses: %w", err)
	}
	summary := domain.Summarize(orders, indexBy(statuses, func(st domain.Status) int64 { return st.ID }))

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, weeklySummaryKey, summary, s.ttl); err != nil {
			s.logger.Warn("weekly summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// Invalidate drops the cached weekly summary. Failures are logged; the entry
// still expires after its ttl.
func (s *ReportService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, weeklySummaryKey); err != nil {
		s.logger.Warn("weekly summary invalidation failed", zap.Error(err))
	}
}
