package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/fjod/shop-scan-print/internal/domain"
)

type MemoryProductRepository struct {
	mu       sync.RWMutex
	products []domain.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{}
}

func (m *MemoryProductRepository) GetAllProducts(_ context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.products), nil
}

func (m *MemoryProductRepository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	return m.find(func(p domain.Product) bool { return p.ID == id })
}

func (m *MemoryProductRepository) GetProductByScanCode(_ context.Context, code string) (*domain.Product, error) {
	return m.find(func(p domain.Product) bool { return p.ScanCode == code })
}

func (m *MemoryProductRepository) CreateProduct(_ context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := append(slices.Clone(m.products), p)
	if err := domain.CheckUnique(next); err != nil {
		return err
	}
	m.products = next
	return nil
}

func (m *MemoryProductRepository) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.products, func(p domain.Product) bool { return p.ID == id })
	if i < 0 {
		return ErrProductNotFound
	}
	m.products = slices.Delete(m.products, i, i+1)
	return nil
}

func (m *MemoryProductRepository) ReplaceAll(_ context.Context, products []domain.Product) error {
	if err := domain.CheckUnique(products); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = slices.Clone(products)
	return nil
}

func (m *MemoryProductRepository) Close() error {
	return nil
}

func (m *MemoryProductRepository) find(match func(domain.Product) bool) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := slices.IndexFunc(m.products, match)
	if i < 0 {
		return nil, ErrProductNotFound
	}
	p := m.products[i]
	return &p, nil
}

// MemoryHistory keeps receipts newest first. Stored and returned receipts are
// copies so callers cannot mutate history.
type MemoryHistory struct {
	mu       sync.RWMutex
	receipts []*domain.Receipt
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (h *MemoryHistory) Append(_ context.Context, r *domain.Receipt) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if slices.ContainsFunc(h.receipts, func(x *domain.Receipt) bool { return x.ID == r.ID }) {
		return ErrDuplicateReceipt
	}
	h.receipts = slices.Insert(h.receipts, 0, r.Clone())
	return nil
}

func (h *MemoryHistory) List(_ context.Context) ([]*domain.Receipt, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*domain.Receipt, len(h.receipts))
	for i, r := range h.receipts {
		out[i] = r.Clone()
	}
	return out, nil
}

func (h *MemoryHistory) Get(_ context.Context, id string) (*domain.Receipt, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.receipts {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, ErrReceiptNotFound
}

func (h *MemoryHistory) Delete(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := slices.IndexFunc(h.receipts, func(r *domain.Receipt) bool { return r.ID == id })
	if i < 0 {
		return ErrReceiptNotFound
	}
	h.receipts = slices.Delete(h.receipts, i, i+1)
	return nil
}

func (h *MemoryHistory) Close() error {
	return nil
}
