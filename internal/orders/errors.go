package orders

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("not authorized")
	ErrConflict           = errors.New("conflict")
	ErrDuplicateDisplayID = errors.New("display id already taken")
	ErrDisplayIDExhausted = errors.New("could not allocate a unique display id")
)

// Error carries a client-facing message for one of the sentinel kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// StockError reports an item that cannot be served from current stock.
// It matches both ErrInsufficientStock and ErrValidation.
type StockError struct {
	ProductID int64
	Name      string
	Variant   Combination
	Requested int
	Available int
}

func (e *StockError) Error() string {
	if !e.Variant.Empty() {
		return fmt.Sprintf("Insufficient stock for %s (%s)", e.Name, e.Variant)
	}
	return fmt.Sprintf("Insufficient stock for %s", e.Name)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock || target == ErrValidation
}
