package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	models "storefront/model"
	"storefront/store"
)

// ReceiptRenderer turns persisted sale rows into a downloadable document.
type ReceiptRenderer interface {
	Render(rows []models.ReceiptRow, shipping models.ShippingDetails) ([]byte, error)
}

type Service struct {
	store    store.Store
	renderer ReceiptRenderer
}

func NewService(s store.Store, r ReceiptRenderer) *Service {
	return &Service{store: s, renderer: r}
}

func (s *Service) CreateProduct(ctx context.Context, name, brand, size string, price float64, stock int) (int64, error) {
	if name == "" {
		return 0, errors.New("name required")
	}
	if price < 0 {
		return 0, errors.New("price must be >= 0")
	}
	if stock < 0 {
		return 0, errors.New("stock must be >= 0")
	}
	return s.store.CreateProduct(ctx, name, brand, size, price, stock)
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Product{
			ID:    r.ID,
			Name:  r.Name,
			Brand: r.Brand,
			Size:  r.Size,
			Price: r.Price,
			Stock: r.Stock,
		})
	}
	return out, nil
}

func (s *Service) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	if newStock < 0 {
		return errors.New("stock cannot be negative")
	}
	return s.store.UpdateStock(ctx, productID, newStock)
}

func (s *Service) Register(ctx context.Context, name, surname, email, password, phone string) (int64, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" {
		return 0, errors.New("name and email required")
	}
	if len(password) < 8 {
		return 0, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	return s.store.CreateCustomer(ctx, name, surname, email, string(hash), phone)
}

func (s *Service) Login(ctx context.Context, email, password string) (models.Customer, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row, err := s.store.GetCustomerByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Customer{}, fmt.Errorf("lookup customer: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return models.Customer{}, ErrInvalidCredentials
	}

	return models.Customer{
		ID:      row.ID,
		Name:    row.Name,
		Surname: row.Surname,
		Email:   row.Email,
		Phone:   row.Phone,
	}, nil
}

// CartLine is a priced view of one cart entry.
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// PriceCart resolves the cart against the catalog and computes line and
// cart totals. Read-only; stock is not checked here, checkout owns that.
func (s *Service) PriceCart(ctx context.Context, cart map[int64]int) ([]CartLine, float64, error) {
	lines := make([]CartLine, 0, len(cart))
	var total float64
	for productID, qty := range cart {
		p, err := s.store.GetProduct(ctx, productID)
		if err != nil {
			return nil, 0, err
		}
		line := CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  qty,
			UnitPrice: p.Price,
			LineTotal: p.Price * float64(qty),
		}
		lines = append(lines, line)
		total += line.LineTotal
	}
	return lines, total, nil
}

// Checkout converts the cart into persisted sales and stock decrements as a
// single all-or-nothing operation. The caller clears the cart only after a
// successful return.
func (s *Service) Checkout(ctx context.Context, customerID int64, cart map[int64]int) ([]models.Sale, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]store.CartLine, 0, len(cart))
	for productID, qty := range cart {
		if qty <= 0 {
			return nil, fmt.Errorf("invalid quantity %d for product %d", qty, productID)
		}
		lines = append(lines, store.CartLine{ProductID: productID, Quantity: qty})
	}

	rows, err := s.store.Checkout(ctx, customerID, lines)
	if err != nil {
		return nil, err
	}

	sales := make([]models.Sale, 0, len(rows))
	for _, r := range rows {
		sales = append(sales, models.Sale{
			ID:         r.ID,
			ProductID:  r.ProductID,
			CustomerID: r.CustomerID,
			Quantity:   r.Quantity,
			Total:      r.Total,
			SaleDate:   r.SaleDate,
		})
	}
	return sales, nil
}

// Receipt renders a PDF over all of the customer's persisted sales.
func (s *Service) Receipt(ctx context.Context, customerID int64, shipping models.ShippingDetails) ([]byte, error) {
	if shipping.Street == "" || shipping.PostalCode == "" || shipping.PaymentMethod == "" {
		return nil, errors.New("street, postal_code and payment_method required")
	}

	joined, err := s.store.SalesForCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ReceiptRow, 0, len(joined))
	for _, j := range joined {
		rows = append(rows, models.ReceiptRow{
			CustomerName:    j.CustomerName,
			CustomerSurname: j.CustomerSurname,
			ProductName:     j.ProductName,
			Brand:           j.Brand,
			Size:            j.Size,
			Quantity:        j.Quantity,
			Total:           j.Total,
			SaleDate:        j.SaleDate,
		})
	}
	return s.renderer.Render(rows, shipping)
}
