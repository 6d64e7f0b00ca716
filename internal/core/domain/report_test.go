package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBucketByDay(t *testing.T) {
	delivered, returned := int64(1), int64(2)
	orders := []Order{
		{ID: 1, StatusID: &delivered, CreatedAt: ts(1, 8)},
		{ID: 2, StatusID: &delivered, CreatedAt: ts(1, 20)},
		{ID: 3, StatusID: &returned, CreatedAt: ts(3, 12)},
		{ID: 4, CreatedAt: nil},
	}

	series := BucketByDay(orders, *ts(1, 0), *ts(3, 23), time.UTC)
	assert.Equal(t, []string{"1 Jun", "2 Jun", "3 Jun"}, series.Categories)
	assert.Equal(t, []int64{2, 0, 1}, series.Counts)
}

func TestBucketByDay_LengthMatchesRange(t *testing.T) {
	start := time.Date(2024, time.February, 25, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 2, 1, 0, 0, 0, time.UTC)

	series := BucketByDay(nil, start, end, time.UTC)
	// 2024 is a leap year: 25..29 Feb plus 1..2 Mar.
	assert.Len(t, series.Categories, 7)
	assert.Len(t, series.Counts, 7)
	assert.Equal(t, "29 Feb", series.Categories[4])
	for _, c := range series.Counts {
		assert.Zero(t, c)
	}
}

func TestBucketByDay_SingleDay(t *testing.T) {
	series := BucketByDay(nil, *ts(5, 1), *ts(5, 2), nil)
	assert.Equal(t, []string{"5 Jun"}, series.Categories)
	assert.Equal(t, []int64{0}, series.Counts)
}

func TestBucketByDay_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("Skipping: timezone data unavailable: %v", err)
	}
	start := time.Date(2024, time.March, 30, 12, 0, 0, 0, loc)
	end := time.Date(2024, time.April, 1, 12, 0, 0, 0, loc)

	series := BucketByDay(nil, start, end, loc)
	assert.Equal(t, []string{"30 Mar", "31 Mar", "1 Apr"}, series.Categories)
}

func TestSummarize(t *testing.T) {
	statuses := map[int64]Status{
		1: {ID: 1, Name: "DELIVERED"},
		2: {ID: 2, Name: "returned"},
		3: {ID: 3, Name: "pending"},
	}
	delivered, returned, pending, ghost := int64(1), int64(2), int64(3), int64(9)
	orders := []Order{
		{StatusID: &delivered, SellingPrice: decimal.NewNullDecimal(decimal.RequireFromString("100"))},
		{StatusID: &delivered},
		{StatusID: &delivered, SellingPrice: decimal.NewNullDecimal(decimal.RequireFromString("0.50"))},
		{StatusID: &returned, SellingPrice: decimal.NewNullDecimal(decimal.RequireFromString("999"))},
		{StatusID: &pending, SellingPrice: decimal.NewNullDecimal(decimal.RequireFromString("999"))},
		{StatusID: &ghost},
		{},
	}

	summary := Summarize(orders, statuses)
	assert.Equal(t, int64(3), summary.TotalDelivered)
	assert.Equal(t, int64(1), summary.TotalReturned)
	assert.Equal(t, "100.5", summary.TotalRevenue.String())
}

func TestDaysInRange(t *testing.T) {
	utc := func(s string) time.Time {
		v, _ := time.Parse(time.RFC3339, s)
		return v
	}
	plus7 := time.FixedZone("UTC+7", 7*60*60)

	assert.Equal(t, 3, DaysInRange(utc("2024-06-01T00:00:00Z"), utc("2024-06-03T23:59:59Z"), nil))
	assert.Equal(t, 366, DaysInRange(utc("2024-01-01T00:00:00Z"), utc("2024-12-31T00:00:00Z"), time.UTC))
	assert.Equal(t, 1, DaysInRange(utc("2024-06-01T10:00:00Z"), utc("2024-06-01T12:00:00Z"), time.UTC))
	assert.Equal(t, 739040, DaysInRange(utc("0001-01-01T00:00:00Z"), utc("2024-06-03T00:00:00Z"), time.UTC))
	assert.Equal(t, 0, DaysInRange(utc("2024-06-02T00:00:00Z"), utc("2024-06-01T00:00:00Z"), time.UTC))
	// 18:00Z on the 1st is the 2nd at UTC+7.
	assert.Equal(t, 2, DaysInRange(utc("2024-06-01T00:00:00Z"), utc("2024-06-01T18:00:00Z"), plus7))
}
