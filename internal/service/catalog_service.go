package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/repository"
	"github.com/fjod/shop-scan-print/internal/scancode"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type NewProduct struct {
	Name        string          `json:"name"`
	WeightGrams int64           `json:"weight_grams"`
	MainPrice   decimal.Decimal `json:"main_price"`
	// nil means the product sells at its main price.
	ActivePrice *decimal.Decimal `json:"active_price,omitempty"`
}

type CatalogService struct {
	repo  repository.ProductRepository
	codes scancode.Generator
	log   *zap.Logger
	now   func() time.Time
	newID func() string

	sfg singleflight.Group
	// serializes snapshot + insert so generated scan codes stay unique
	mu sync.Mutex
}

func NewCatalogService(repo repository.ProductRepository, codes scancode.Generator, log *zap.Logger) *CatalogService {
	return &CatalogService{
		repo:  repo,
		codes: codes,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (s *CatalogService) AddProduct(ctx context.Context, np NewProduct) (*domain.Product, error) {
	p, err := s.validate(np)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	p.ID = s.newID()
	p.CreatedAt = s.now().UTC()
	p.ScanCode, err = s.codes.Generate(snapshot)
	if err != nil {
		return nil, fmt.Errorf("assign scan code: %w", err)
	}
	if err := domain.CheckUnique(append(snapshot, p)); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product added",
		zap.String("product_id", p.ID),
		zap.String("name", p.Name),
		zap.String("scan_code", p.ScanCode))
	return &p, nil
}

func (s *CatalogService) validate(np NewProduct) (domain.Product, error) {
	name := strings.TrimSpace(np.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if hasControl(name) {
		return domain.Product{}, fmt.Errorf("%w: name contains control characters", ErrInvalidProduct)
	}
	if np.WeightGrams <= 0 {
		return domain.Product{}, fmt.Errorf("%w: weight must be positive", ErrInvalidProduct)
	}
	active := np.MainPrice
	if np.ActivePrice != nil {
		active = *np.ActivePrice
	}
	if np.MainPrice.IsNegative() || active.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: prices must not be negative", ErrInvalidProduct)
	}
	if active.GreaterThan(np.MainPrice) {
		return domain.Product{}, fmt.Errorf("%w: active price exceeds main price", ErrInvalidProduct)
	}
	return domain.Product{
		Name:        name,
		WeightGrams: np.WeightGrams,
		MainPrice:   np.MainPrice.Round(2),
		ActivePrice: active.Round(2),
	}, nil
}

// List collapses concurrent reads into a single repository call.
func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		return s.repo.GetAllProducts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Product(nil), v.([]domain.Product)...), nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) LookupScanCode(ctx context.Context, code string) (*domain.Product, error) {
	return s.repo.GetProductByScanCode(ctx, strings.TrimSpace(code))
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.String("product_id", id))
	return nil
}

// Import replaces the whole catalog. Nothing is written unless every product
// is valid and the set has no duplicates.
func (s *CatalogService) Import(ctx context.Context, products []domain.Product) error {
	for i, p := range products {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" || p.ScanCode == "" {
			return fmt.Errorf("%w: product %d is missing id, name or scan code", ErrInvalidProduct, i)
		}
		if hasControl(p.Name) {
			return fmt.Errorf("%w: product %s name contains control characters", ErrInvalidProduct, p.ID)
		}
		if p.WeightGrams <= 0 || p.MainPrice.IsNegative() || p.ActivePrice.IsNegative() {
			return fmt.Errorf("%w: product %s has invalid weight or price", ErrInvalidProduct, p.ID)
		}
	}
	if err := domain.CheckUnique(products); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.ReplaceAll(ctx, products); err != nil {
		return err
	}
	s.log.Info("catalog imported", zap.Int("products", len(products)))
	return nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrProductNotFound) || errors.Is(err, repository.ErrReceiptNotFound)
}
