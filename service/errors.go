package service

import "errors"

var (
	// ErrEmptyCart rejects a checkout before the store is touched.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
