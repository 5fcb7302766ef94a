package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	models "storefront/model"
	"storefront/store"
)

// ---- fakeStore implementing store.Store for tests ----
type fakeStore struct {
	CreateProductFn      func(ctx context.Context, name, brand, size string, price float64, stock int) (int64, error)
	ListProductsFn       func(ctx context.Context) ([]store.ProductRow, error)
	GetProductFn         func(ctx context.Context, id int64) (store.ProductRow, error)
	UpdateStockFn        func(ctx context.Context, productID int64, newStock int) error
	CreateCustomerFn     func(ctx context.Context, name, surname, email, passwordHash, phone string) (int64, error)
	GetCustomerByEmailFn func(ctx context.Context, email string) (store.CustomerRow, error)
	CheckoutFn           func(ctx context.Context, customerID int64, lines []store.CartLine) ([]store.SaleRow, error)
	SalesForCustomerFn   func(ctx context.Context, customerID int64) ([]store.ReceiptJoinRow, error)
}

func (f *fakeStore) CreateProduct(ctx context.Context, name, brand, size string, price float64, stock int) (int64, error) {
	return f.CreateProductFn(ctx, name, brand, size, price, stock)
}
func (f *fakeStore) ListProducts(ctx context.Context) ([]store.ProductRow, error) {
	return f.ListProductsFn(ctx)
}
func (f *fakeStore) GetProduct(ctx context.Context, id int64) (store.ProductRow, error) {
	return f.GetProductFn(ctx, id)
}
func (f *fakeStore) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	return f.UpdateStockFn(ctx, productID, newStock)
}
func (f *fakeStore) CreateCustomer(ctx context.Context, name, surname, email, passwordHash, phone string) (int64, error) {
	return f.CreateCustomerFn(ctx, name, surname, email, passwordHash, phone)
}
func (f *fakeStore) GetCustomerByEmail(ctx context.Context, email string) (store.CustomerRow, error) {
	return f.GetCustomerByEmailFn(ctx, email)
}
func (f *fakeStore) Checkout(ctx context.Context, customerID int64, lines []store.CartLine) ([]store.SaleRow, error) {
	return f.CheckoutFn(ctx, customerID, lines)
}
func (f *fakeStore) SalesForCustomer(ctx context.Context, customerID int64) ([]store.ReceiptJoinRow, error) {
	return f.SalesForCustomerFn(ctx, customerID)
}
func (f *fakeStore) Close() error { return nil }

type fakeRenderer struct {
	rows     []models.ReceiptRow
	shipping models.ShippingDetails
	out      []byte
	err      error
}

func (f *fakeRenderer) Render(rows []models.ReceiptRow, shipping models.ShippingDetails) ([]byte, error) {
	f.rows = rows
	f.shipping = shipping
	return f.out, f.err
}

// ---- Tests ----

func TestCheckout_EmptyCartRejectedBeforeStore(t *testing.T) {
	called := false
	svc := NewService(&fakeStore{
		CheckoutFn: func(ctx context.Context, customerID int64, lines []store.CartLine) ([]store.SaleRow, error) {
			called = true
			return nil, nil
		},
	}, &fakeRenderer{})

	_, err := svc.Checkout(context.Background(), 1, map[int64]int{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.False(t, called, "store must not be touched for an empty cart")
}

func TestCheckout_RejectsNonPositiveQuantity(t *testing.T) {
	called := false
	svc := NewService(&fakeStore{
		CheckoutFn: func(ctx context.Context, customerID int64, lines []store.CartLine) ([]store.SaleRow, error) {
			called = true
			return nil, nil
		},
	}, &fakeRenderer{})

	_, err := svc.Checkout(context.Background(), 1, map[int64]int{3: 0})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestCheckout_MapsSaleRows(t *testing.T) {
	saleDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(&fakeStore{
		CheckoutFn: func(ctx context.Context, customerID int64, lines []store.CartLine) ([]store.SaleRow, error) {
			require.Equal(t, int64(7), customerID)
			require.Len(t, lines, 1)
			return []store.SaleRow{
				{ID: 1, ProductID: lines[0].ProductID, CustomerID: customerID,
					Quantity: lines[0].Quantity, Total: 100.0, SaleDate: saleDate},
			}, nil
		},
	}, &fakeRenderer{})

	sales, err := svc.Checkout(context.Background(), 7, map[int64]int{1: 2})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 100.0, sales[0].Total)
	assert.Equal(t, saleDate, sales[0].SaleDate)
}

func TestCheckout_ForwardsStoreErrors(t *testing.T) {
	svc := NewService(&fakeStore{
		CheckoutFn: func(ctx context.Context, customerID int64, lines []store.CartLine) ([]store.SaleRow, error) {
			return nil, &store.InsufficientStockError{ProductID: 2, Available: 3, Requested: 10}
		},
	}, &fakeRenderer{})

	_, err := svc.Checkout(context.Background(), 1, map[int64]int{2: 10})
	var noStock *store.InsufficientStockError
	require.ErrorAs(t, err, &noStock)
	assert.Equal(t, 3, noStock.Available)
	assert.Equal(t, 10, noStock.Requested)
}

func TestPriceCart(t *testing.T) {
	svc := NewService(&fakeStore{
		GetProductFn: func(ctx context.Context, id int64) (store.ProductRow, error) {
			prices := map[int64]float64{1: 50.0, 2: 20.0}
			p, ok := prices[id]
			if !ok {
				return store.ProductRow{}, &store.ProductNotFoundError{ProductID: id}
			}
			return store.ProductRow{ID: id, Name: "p", Price: p, Stock: 10}, nil
		},
	}, &fakeRenderer{})

	lines, total, err := svc.PriceCart(context.Background(), map[int64]int{1: 2, 2: 1})
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Equal(t, 120.0, total)

	_, _, err = svc.PriceCart(context.Background(), map[int64]int{99: 1})
	var notFound *store.ProductNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRegister_HashesPassword(t *testing.T) {
	var gotHash string
	svc := NewService(&fakeStore{
		CreateCustomerFn: func(ctx context.Context, name, surname, email, passwordHash, phone string) (int64, error) {
			gotHash = passwordHash
			assert.Equal(t, "ana@example.com", email)
			return 12, nil
		},
	}, &fakeRenderer{})

	id, err := svc.Register(context.Background(), "Ana", "Lopez", " Ana@Example.com ", "hunter2hunter2", "555")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(gotHash), []byte("hunter2hunter2")))
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeRenderer{})

	_, err := svc.Register(context.Background(), "", "", "a@b.c", "hunter2hunter2", "")
	assert.Error(t, err, "name required")

	_, err = svc.Register(context.Background(), "Ana", "", "a@b.c", "short", "")
	assert.Error(t, err, "short password rejected")
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	st := &fakeStore{
		GetCustomerByEmailFn: func(ctx context.Context, email string) (store.CustomerRow, error) {
			if email != "ana@example.com" {
				return store.CustomerRow{}, sql.ErrNoRows
			}
			return store.CustomerRow{
				ID: 12, Name: "Ana", Surname: "Lopez",
				Email: email, PasswordHash: string(hash), Phone: "555",
			}, nil
		},
	}
	svc := NewService(st, &fakeRenderer{})

	// unknown email
	_, err = svc.Login(context.Background(), "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// wrong password
	_, err = svc.Login(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// success; hash never leaves the service
	customer, err := svc.Login(context.Background(), "ana@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, int64(12), customer.ID)
	assert.Empty(t, customer.PasswordHash)
}

func TestReceipt_NoSales(t *testing.T) {
	svc := NewService(&fakeStore{
		SalesForCustomerFn: func(ctx context.Context, customerID int64) ([]store.ReceiptJoinRow, error) {
			return nil, store.ErrNoSalesFound
		},
	}, &fakeRenderer{out: []byte("pdf")})

	_, err := svc.Receipt(context.Background(), 8, models.ShippingDetails{
		Street: "Av. Juarez", PostalCode: "06000", ExtNumber: "10", PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, store.ErrNoSalesFound)
}

func TestReceipt_MapsRowsToRenderer(t *testing.T) {
	saleDate := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	renderer := &fakeRenderer{out: []byte("%PDF-fake")}
	svc := NewService(&fakeStore{
		SalesForCustomerFn: func(ctx context.Context, customerID int64) ([]store.ReceiptJoinRow, error) {
			return []store.ReceiptJoinRow{
				{CustomerName: "Ana", CustomerSurname: "Lopez", ProductName: "Runner X",
					Brand: "Nike", Size: "26", Quantity: 2, Total: 100.0, SaleDate: saleDate},
			}, nil
		},
	}, renderer)

	shipping := models.ShippingDetails{
		Street: "Av. Juarez", PostalCode: "06000", ExtNumber: "10",
		IntNumber: "3B", PaymentMethod: "card",
	}
	doc, err := svc.Receipt(context.Background(), 8, shipping)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), doc)

	require.Len(t, renderer.rows, 1)
	assert.Equal(t, "Runner X", renderer.rows[0].ProductName)
	assert.Equal(t, shipping, renderer.shipping)
}

func TestReceipt_RequiresShippingFields(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeRenderer{})
	_, err := svc.Receipt(context.Background(), 8, models.ShippingDetails{Street: "Av. Juarez"})
	assert.Error(t, err)
}
