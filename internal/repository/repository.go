package repository

import (
	"context"
	"errors"

	"github.com/fjod/shop-scan-print/internal/domain"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrReceiptNotFound  = errors.New("receipt not found")
	ErrDuplicateReceipt = errors.New("receipt with this id already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// ProductRepository stores the catalog. Implementations keep insertion order
// and reject duplicates with *domain.DuplicateProductError.
type ProductRepository interface {
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductByScanCode(ctx context.Context, code string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	// ReplaceAll swaps the whole catalog atomically.
	ReplaceAll(ctx context.Context, products []domain.Product) error
	Close() error
}

// HistoryRepository is the append-only receipt log. List returns the most
// recent receipt first.
type HistoryRepository interface {
	Append(ctx context.Context, r *domain.Receipt) error
	List(ctx context.Context) ([]*domain.Receipt, error)
	Get(ctx context.Context, id string) (*domain.Receipt, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
