package domain

import (
	"math"
	"sort"
	"strings"
)

const DefaultPageSize = 50

type OrderFilter struct {
	StatusName string
	ProductID  int64
	Search     string
	Page       int // 0-based
	PageSize   int
}

// Normalize clamps a negative page to 0 and replaces a non-positive page
// size with defaultSize.
func (f OrderFilter) Normalize(defaultSize int) OrderFilter {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if f.Page < 0 {
		f.Page = 0
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultSize
	}
	return f
}

// Offset is the index of the page's first item. It saturates at
// math.MaxInt when page*size does not fit in an int, so such pages are
// always past the end.
func (f OrderFilter) Offset() int {
	return offset(f.Page, f.PageSize)
}

func offset(page, size int) int {
	if size > 0 && page > (math.MaxInt-size)/size {
		return math.MaxInt
	}
	return page * size
}

// FiltersStatus is false for a blank name and for the "all" sentinel.
func (f OrderFilter) FiltersStatus() bool {
	name := strings.TrimSpace(f.StatusName)
	return name != "" && !strings.EqualFold(name, StatusFilterAll)
}

func (f OrderFilter) SearchTerm() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

// OrderCriteria is an OrderFilter with the status already resolved, in the
// shape a store can execute directly.
type OrderCriteria struct {
	StatusID  *int64
	ProductID int64
	Search    string // lower-cased, trimmed
	Offset    int
	Limit     int
}

type OrderPage struct {
	Items       []OrderView
	CurrentPage int
	TotalPages  int
	TotalItems  int
}

// ApplyFilter runs the product filter, the customer search, the newest-first
// sort and the page slice over already hydrated views. A nil statusID skips
// the status filter. The input slice is not modified.
func ApplyFilter(views []OrderView, statusID *int64, f OrderFilter) OrderPage {
	matched := make([]OrderView, 0, len(views))
	term := f.SearchTerm()
	for _, v := range views {
		if statusID != nil && !v.HasStatus(*statusID) {
			continue
		}
		if f.ProductID != 0 && v.ProductID != f.ProductID {
			continue
		}
		if term != "" && !v.MatchesSearch(term) {
			continue
		}
		matched = append(matched, v)
	}

	SortNewestFirst(matched)

	return OrderPage{
		Items:       Paginate(matched, f.Page, f.PageSize),
		CurrentPage: f.Page,
		TotalPages:  TotalPages(len(matched), f.PageSize),
		TotalItems:  len(matched),
	}
}

// MatchesSearch expects a lower-cased term. Views without a customer never
// match.
func (v OrderView) MatchesSearch(term string) bool {
	if v.Customer == nil {
		return false
	}
	for _, field := range []*string{v.Customer.FirstName, v.Customer.LastName, v.Customer.Phone1, v.Customer.Phone2} {
		if strings.Contains(strings.ToLower(deref(field)), term) {
			return true
		}
	}
	return false
}

// SortNewestFirst orders by CreatedAt descending with missing timestamps
// last. Ties keep their relative order.
func SortNewestFirst(views []OrderView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].CreatedAt, views[j].CreatedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}

func Paginate[T any](items []T, page, size int) []T {
	if size <= 0 || page < 0 {
		return []T{}
	}
	start := offset(page, size)
	if start >= len(items) {
		return []T{}
	}
	end := start + min(size, len(items)-start)
	return items[start:end]
}

func TotalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return pages
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
