package cache

import (
	"context"
	"errors"

	"github.com/fjod/shop-scan-print/internal/domain"
)

// CartCache holds the single active cart of each terminal.
type CartCache interface {
	Get(ctx context.Context, terminalID string) (*domain.Cart, error)
	Set(ctx context.Context, terminalID string, cart *domain.Cart) error
	Delete(ctx context.Context, terminalID string) error
}

var ErrCacheMiss = errors.New("cache miss")
