package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayLabelLayout renders "5 Jun".
const DayLabelLayout = "2 Jan"

const dayKeyLayout = "2006-01-02"

// MaxSeriesDays bounds the length of a daily series.
const MaxSeriesDays = 366

type DailySeries struct {
	Categories []string
	Counts     []int64
}

type WeeklySummary struct {
	TotalDelivered int64
	TotalReturned  int64
	TotalRevenue   decimal.Decimal
}

// BucketByDay counts orders per calendar day in loc and emits one entry for
// every day from start's date to end's date inclusive, zero-filled.
func BucketByDay(orders []Order, start, end time.Time, loc *time.Location) DailySeries {
	if loc == nil {
		loc = time.UTC
	}

	counts := make(map[string]int64)
	for _, o := range orders {
		if o.CreatedAt == nil {
			continue
		}
		counts[o.CreatedAt.In(loc).Format(dayKeyLayout)]++
	}

	series := DailySeries{
		Categories: []string{},
		Counts:     []int64{},
	}
	last := StartOfDay(end, loc)
	for day := StartOfDay(start, loc); !day.After(last); day = day.AddDate(0, 0, 1) {
		series.Categories = append(series.Categories, day.Format(DayLabelLayout))
		series.Counts = append(series.Counts, counts[day.Format(dayKeyLayout)])
	}
	return series
}

// DaysInRange is the number of calendar days in loc from start's date to
// end's date inclusive, or 0 when end's date precedes start's.
func DaysInRange(start, end time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	a, b := start.In(loc), end.In(loc)
	from := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	if to.Before(from) {
		return 0
	}
	return int((to.Unix()-from.Unix())/86400) + 1
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Summarize classifies orders by status name. Revenue sums the selling price
// of delivered orders; a missing selling price is skipped, not counted as
// zero.
func Summarize(orders []Order, statuses map[int64]Status) WeeklySummary {
	summary := WeeklySummary{TotalRevenue: decimal.Zero}
	for _, o := range orders {
		if o.StatusID == nil {
			continue
		}
		status, ok := statuses[*o.StatusID]
		if !ok {
			continue
		}
		switch {
		case status.Is(StatusDelivered):
			summary.TotalDelivered++
			if o.SellingPrice.Valid {
				summary.TotalRevenue = summary.TotalRevenue.Add(o.SellingPrice.Decimal)
			}
		case status.Is(StatusReturned):
			summary.TotalReturned++
		}
	}
	return summary
}
