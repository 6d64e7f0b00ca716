package service

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrStatusNotFound    = errors.New("status not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrStaleVersion      = errors.New("order was modified concurrently")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrRangeTooLarge     = errors.New("date range too large")
)

type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %q to %q", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
