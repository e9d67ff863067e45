package cache

import (
	"context"
	"sync"

	"github.com/fjod/shop-scan-print/internal/domain"
)

type MemoryCache struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{carts: make(map[string]*domain.Cart)}
}

func (m *MemoryCache) Get(_ context.Context, terminalID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[terminalID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &domain.Cart{Lines: cart.Snapshot()}, nil
}

func (m *MemoryCache) Set(_ context.Context, terminalID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[terminalID] = &domain.Cart{Lines: cart.Snapshot()}
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, terminalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, terminalID)
	return nil
}
