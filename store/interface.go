package store

import "context"

// Store is the persistence boundary consumed by the service layer.
type Store interface {
	CreateProduct(ctx context.Context, name, brand, size string, price float64, stock int) (int64, error)
	ListProducts(ctx context.Context) ([]ProductRow, error)
	GetProduct(ctx context.Context, id int64) (ProductRow, error)
	UpdateStock(ctx context.Context, productID int64, newStock int) error

	CreateCustomer(ctx context.Context, name, surname, email, passwordHash, phone string) (int64, error)
	GetCustomerByEmail(ctx context.Context, email string) (CustomerRow, error)

	// Checkout validates every cart line against the catalog, then records
	// one sale per line and decrements stock, all inside a single
	// transaction. On any failure nothing is persisted.
	Checkout(ctx context.Context, customerID int64, lines []CartLine) ([]SaleRow, error)

	// SalesForCustomer returns the customer's sales joined with customer and
	// product data, oldest first. Returns ErrNoSalesFound when empty.
	SalesForCustomer(ctx context.Context, customerID int64) ([]ReceiptJoinRow, error)

	Close() error
}
