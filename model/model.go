package models

import "time"

// Product is a catalog row. Stock is only mutated by checkout and the
// admin stock update.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Brand string  `json:"brand"`
	Size  string  `json:"size"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Customer is created at registration and read at login/checkout.
type Customer struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Phone        string `json:"phone"`
}

// Sale is one purchased line item. Immutable once written.
type Sale struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	CustomerID int64     `json:"customer_id"`
	Quantity   int       `json:"quantity"`
	Total      float64   `json:"total"`
	SaleDate   time.Time `json:"sale_date"`
}

// ReceiptRow is a sale joined with its customer and product, as consumed
// by the receipt renderer.
type ReceiptRow struct {
	CustomerName    string
	CustomerSurname string
	ProductName     string
	Brand           string
	Size            string
	Quantity        int
	Total           float64
	SaleDate        time.Time
}

// ShippingDetails is the shipping/payment metadata printed on a receipt.
// IntNumber is optional (apartments, suites).
type ShippingDetails struct {
	PostalCode    string `json:"postal_code"`
	Street        string `json:"street"`
	ExtNumber     string `json:"ext_number"`
	IntNumber     string `json:"int_number,omitempty"`
	PaymentMethod string `json:"payment_method"`
}
