package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/google/uuid"
)

// ReceiptBuilder is the only place receipts are minted.
type ReceiptBuilder struct {
	now   func() time.Time
	newID func() string
}

func NewReceiptBuilder() *ReceiptBuilder {
	return &ReceiptBuilder{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Checkout freezes the cart into a receipt. The cart itself is left as it
// was; clearing it and storing the receipt is up to the caller.
func (b *ReceiptBuilder) Checkout(cart *domain.Cart, customerName string) (*domain.Receipt, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := checkLines(cart.Lines); err != nil {
		return nil, err
	}

	return &domain.Receipt{
		ID:           b.newID(),
		CustomerName: strings.TrimSpace(customerName),
		Items:        cart.Snapshot(),
		Total:        cart.Total(),
		CreatedAt:    b.now(),
	}, nil
}

func checkLines(lines []domain.CartLine) error {
	seen := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		if l.Product.ID == "" {
			return fmt.Errorf("%w: line %d has no product id", ErrInvariantViolation, i)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: line %d (%s) has quantity %d", ErrInvariantViolation, i, l.Product.ID, l.Quantity)
		}
		if _, ok := seen[l.Product.ID]; ok {
			return fmt.Errorf("%w: product %s appears twice", ErrInvariantViolation, l.Product.ID)
		}
		seen[l.Product.ID] = struct{}{}
	}
	return nil
}
