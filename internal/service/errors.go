package service

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrInvariantViolation = errors.New("cart line violates invariant")
	ErrInvalidProduct     = errors.New("invalid product")
)
