package store

import (
	"errors"
	"fmt"
)

// ErrNoSalesFound is returned when a receipt is requested for a customer
// with no recorded sales.
var ErrNoSalesFound = errors.New("no sales found")

// ErrDuplicateEmail is returned when registration hits the unique email
// constraint.
var ErrDuplicateEmail = errors.New("email already registered")

// ProductNotFoundError reports a cart line referencing a product that does
// not exist in the catalog.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InsufficientStockError reports a cart line requesting more units than the
// product has in stock at checkout time.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}
