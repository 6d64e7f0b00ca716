package domain

import (
	"fmt"
	"strings"
)

const (
	StatusDelivered = "delivered"
	StatusReturned  = "returned"

	// StatusFilterAll disables the status filter of an order listing.
	StatusFilterAll = "all"
)

// Status is an admin-defined label. Names compare case-insensitively.
type Status struct {
	ID      int64
	Name    string
	HexCode string
}

func (s Status) Is(name string) bool {
	return strings.EqualFold(s.Name, name)
}

func FindStatusByName(statuses []Status, name string) (Status, bool) {
	for _, s := range statuses {
		if s.Is(name) {
			return s, true
		}
	}
	return Status{}, false
}

// TransitionTable maps a lower-cased source status name to the lower-cased
// names it may move to. An empty table allows every transition.
type TransitionTable map[string]map[string]struct{}

// ParseTransitionTable reads "src:dst1|dst2;src2:dst3". Blank input yields an
// empty, permissive table.
func ParseTransitionTable(raw string) (TransitionTable, error) {
	table := make(TransitionTable)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		from, targets, ok := strings.Cut(entry, ":")
		from = strings.ToLower(strings.TrimSpace(from))
		if !ok || from == "" {
			return nil, fmt.Errorf("invalid transition entry %q", entry)
		}
		allowed, exists := table[from]
		if !exists {
			allowed = make(map[string]struct{})
			table[from] = allowed
		}
		for _, to := range strings.Split(targets, "|") {
			to = strings.ToLower(strings.TrimSpace(to))
			if to == "" {
				continue
			}
			allowed[to] = struct{}{}
		}
	}
	return table, nil
}

func (t TransitionTable) Permissive() bool {
	return len(t) == 0
}

// Allows reports whether an order labelled from may be relabelled to. Staying
// on the same status is always allowed. A source missing from a non-empty
// table is terminal.
func (t TransitionTable) Allows(from, to string) bool {
	if t.Permissive() || strings.EqualFold(from, to) {
		return true
	}
	allowed, ok := t[strings.ToLower(from)]
	if !ok {
		return false
	}
	_, ok = allowed[strings.ToLower(to)]
	return ok
}
