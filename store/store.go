package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
)

// Row structs mirror the underlying tables.
type ProductRow struct {
	ID    int64
	Name  string
	Brand string
	Size  string
	Price float64
	Stock int
}

type CustomerRow struct {
	ID           int64
	Name         string
	Surname      string
	Email        string
	PasswordHash string
	Phone        string
}

// CartLine is one validated cart entry handed to Checkout.
type CartLine struct {
	ProductID int64
	Quantity  int
}

type SaleRow struct {
	ID         int64
	ProductID  int64
	CustomerID int64
	Quantity   int
	Total      float64
	SaleDate   time.Time
}

// ReceiptJoinRow is a sale joined with its customer and product.
type ReceiptJoinRow struct {
	CustomerName    string
	CustomerSurname string
	ProductName     string
	Brand           string
	Size            string
	Quantity        int
	Total           float64
	SaleDate        time.Time
}

// PostgresStore is a Store backed by Postgres.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

func (s *PostgresStore) CreateProduct(ctx context.Context, name, brand, size string, price float64, stock int) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO products (name, brand, size, price, stock) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		name, brand, size, price, stock,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]ProductRow, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, brand, size, price, stock FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ProductRow{}
	for rows.Next() {
		var p ProductRow
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Size, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (ProductRow, error) {
	var p ProductRow
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, brand, size, price, stock FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Brand, &p.Size, &p.Price, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return ProductRow{}, &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return ProductRow{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

// UpdateStock sets the absolute stock for a product (admin operation).
func (s *PostgresStore) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	if newStock < 0 {
		return errors.New("stock cannot be negative")
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE products SET stock = $1 WHERE id = $2`, newStock, productID)
	if err != nil {
		return err
	}
	ra, _ := res.RowsAffected()
	if ra == 0 {
		return &ProductNotFoundError{ProductID: productID}
	}
	return nil
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, name, surname, email, passwordHash, phone string) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO customers (name, surname, email, password_hash, phone)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		name, surname, email, passwordHash, phone,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetCustomerByEmail(ctx context.Context, email string) (CustomerRow, error) {
	var c CustomerRow
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, surname, email, password_hash, phone FROM customers WHERE email = $1`,
		email,
	).Scan(&c.ID, &c.Name, &c.Surname, &c.Email, &c.PasswordHash, &c.Phone)
	if err != nil {
		return CustomerRow{}, err
	}
	return c, nil
}

// Checkout turns the cart lines into sale rows and stock decrements inside
// one transaction. Product rows are locked with FOR UPDATE in id order so
// concurrent checkouts on the same products serialize instead of racing the
// stock check. Every line is validated before anything is written; any
// failure rolls the whole transaction back.
func (s *PostgresStore) Checkout(ctx context.Context, customerID int64, lines []CartLine) ([]SaleRow, error) {
	sorted := make([]CartLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkout tx: %w", err)
	}
	defer tx.Rollback()

	// Pass 1: lock and validate every product before writing anything.
	prices := make(map[int64]float64, len(sorted))
	for _, ln := range sorted {
		var price float64
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT price, stock FROM products WHERE id = $1 FOR UPDATE`, ln.ProductID,
		).Scan(&price, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ProductNotFoundError{ProductID: ln.ProductID}
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %d: %w", ln.ProductID, err)
		}
		if stock < ln.Quantity {
			return nil, &InsufficientStockError{
				ProductID: ln.ProductID,
				Available: stock,
				Requested: ln.Quantity,
			}
		}
		prices[ln.ProductID] = price
	}

	// Pass 2: record sales and decrement stock.
	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO sales (product_id, customer_id, quantity, total, sale_date)
		 VALUES ($1, $2, $3, $4, CURRENT_DATE) RETURNING id, sale_date`)
	if err != nil {
		return nil, fmt.Errorf("prepare sale insert: %w", err)
	}
	defer insert.Close()

	decrement, err := tx.PrepareContext(ctx,
		`UPDATE products SET stock = stock - $1 WHERE id = $2`)
	if err != nil {
		return nil, fmt.Errorf("prepare stock update: %w", err)
	}
	defer decrement.Close()

	sales := make([]SaleRow, 0, len(sorted))
	for _, ln := range sorted {
		sale := SaleRow{
			ProductID:  ln.ProductID,
			CustomerID: customerID,
			Quantity:   ln.Quantity,
			Total:      prices[ln.ProductID] * float64(ln.Quantity),
		}
		if err := insert.QueryRowContext(ctx, ln.ProductID, customerID, ln.Quantity, sale.Total).
			Scan(&sale.ID, &sale.SaleDate); err != nil {
			return nil, fmt.Errorf("insert sale for product %d: %w", ln.ProductID, err)
		}
		if _, err := decrement.ExecContext(ctx, ln.Quantity, ln.ProductID); err != nil {
			return nil, fmt.Errorf("decrement stock for product %d: %w", ln.ProductID, err)
		}
		sales = append(sales, sale)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}
	return sales, nil
}

func (s *PostgresStore) SalesForCustomer(ctx context.Context, customerID int64) ([]ReceiptJoinRow, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT c.name, c.surname, p.name, p.brand, p.size, s.quantity, s.total, s.sale_date
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		JOIN products p ON p.id = s.product_id
		WHERE s.customer_id = $1
		ORDER BY s.id
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReceiptJoinRow{}
	for rows.Next() {
		var r ReceiptJoinRow
		if err := rows.Scan(&r.CustomerName, &r.CustomerSurname, &r.ProductName,
			&r.Brand, &r.Size, &r.Quantity, &r.Total, &r.SaleDate); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoSalesFound
	}
	return out, nil
}
