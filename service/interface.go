package service

import (
	"context"

	models "storefront/model"
)

type ServiceInterface interface {
	CreateProduct(ctx context.Context, name, brand, size string, price float64, stock int) (int64, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateStock(ctx context.Context, productID int64, newStock int) error

	Register(ctx context.Context, name, surname, email, password, phone string) (int64, error)
	Login(ctx context.Context, email, password string) (models.Customer, error)

	PriceCart(ctx context.Context, cart map[int64]int) ([]CartLine, float64, error)
	Checkout(ctx context.Context, customerID int64, cart map[int64]int) ([]models.Sale, error)
	Receipt(ctx context.Context, customerID int64, shipping models.ShippingDetails) ([]byte, error)
}
