package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/repository"
	"github.com/fjod/shop-scan-print/internal/scancode"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCatalog(t *testing.T) (*CatalogService, *repository.MemoryProductRepository) {
	t.Helper()
	repo := repository.NewMemoryProductRepository()
	return NewCatalogService(repo, scancode.NewSequence("SKU", 4), zap.NewNop()), repo
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func price(s string) *decimal.Decimal {
	d := money(s)
	return &d
}

func TestAddProduct_AssignsIdentity(t *testing.T) {
	catalog, _ := newCatalog(t)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	catalog.now = func() time.Time { return at }

	p, err := catalog.AddProduct(context.Background(), NewProduct{
		Name:        "  Rice ",
		WeightGrams: 1000,
		MainPrice:   money("50.004"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Rice", p.Name)
	assert.Equal(t, "SKU0001", p.ScanCode)
	assert.Equal(t, at, p.CreatedAt)
	assert.Equal(t, "50.00", domain.FormatMoney(p.MainPrice))
	assert.True(t, p.ActivePrice.Equal(p.MainPrice), "active price defaults to main price")
}

func TestAddProduct_Validation(t *testing.T) {
	catalog, _ := newCatalog(t)
	cases := map[string]NewProduct{
		"blank name":      {Name: "  ", WeightGrams: 1, MainPrice: money("1")},
		"zero weight":     {Name: "Rice", WeightGrams: 0, MainPrice: money("1")},
		"negative price":  {Name: "Rice", WeightGrams: 1, MainPrice: money("-1")},
		"active too high": {Name: "Rice", WeightGrams: 1, MainPrice: money("1"), ActivePrice: price("2")},
		"negative active": {Name: "Rice", WeightGrams: 1, MainPrice: money("1"), ActivePrice: price("-0.01")},
		"control in name": {Name: "Rice\x1d\x56\x01", WeightGrams: 1, MainPrice: money("1")},
		"newline in name": {Name: "Ri\nce", WeightGrams: 1, MainPrice: money("1")},
	}
	for name, np := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.AddProduct(context.Background(), np)
			assert.ErrorIs(t, err, ErrInvalidProduct)
		})
	}
}

func TestAddProduct_ZeroActivePriceIsKept(t *testing.T) {
	catalog, _ := newCatalog(t)

	p, err := catalog.AddProduct(context.Background(), NewProduct{
		Name:        "Free Sample",
		WeightGrams: 10,
		MainPrice:   money("3.50"),
		ActivePrice: price("0"),
	})
	require.NoError(t, err)
	assert.True(t, p.ActivePrice.IsZero())
	assert.Equal(t, "3.50", domain.FormatMoney(p.MainPrice))
}

func TestAddProduct_DuplicateNameIgnoresCase(t *testing.T) {
	catalog, _ := newCatalog(t)
	ctx := context.Background()
	_, err := catalog.AddProduct(ctx, NewProduct{Name: "Rice", WeightGrams: 1, MainPrice: money("1")})
	require.NoError(t, err)

	_, err = catalog.AddProduct(ctx, NewProduct{Name: "rICE", WeightGrams: 1, MainPrice: money("1")})
	var dup *domain.DuplicateProductError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "name", dup.Field)
}

func TestAddProduct_ConcurrentCodesStayUnique(t *testing.T) {
	catalog, repo := newCatalog(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := catalog.AddProduct(ctx, NewProduct{
				Name:        "Item " + string(rune('A'+i)),
				WeightGrams: 100,
				MainPrice:   money("1"),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := repo.GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 20)
	assert.NoError(t, domain.CheckUnique(all))
}

func TestLookupAndDelete(t *testing.T) {
	catalog, _ := newCatalog(t)
	ctx := context.Background()
	p, err := catalog.AddProduct(ctx, NewProduct{Name: "Rice", WeightGrams: 1, MainPrice: money("1")})
	require.NoError(t, err)

	got, err := catalog.LookupScanCode(ctx, " "+p.ScanCode+"\n")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	list, err := catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, catalog.Delete(ctx, p.ID))
	_, err = catalog.Get(ctx, p.ID)
	assert.True(t, IsNotFound(err))
}

func TestImport(t *testing.T) {
	catalog, repo := newCatalog(t)
	ctx := context.Background()
	_, err := catalog.AddProduct(ctx, NewProduct{Name: "Old", WeightGrams: 1, MainPrice: money("1")})
	require.NoError(t, err)

	err = catalog.Import(ctx, []domain.Product{
		testProduct("p1", "Rice", "50"),
		testProduct("p2", "Oil", "120"),
	})
	require.NoError(t, err)

	all, err := repo.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p1", all[0].ID)
}

func TestImport_RejectsBadInputWithoutWriting(t *testing.T) {
	catalog, repo := newCatalog(t)
	ctx := context.Background()
	require.NoError(t, catalog.Import(ctx, []domain.Product{testProduct("p1", "Rice", "50")}))

	dupName := testProduct("p3", "RICE", "1")
	err := catalog.Import(ctx, []domain.Product{testProduct("p2", "Rice", "50"), dupName})
	assert.ErrorIs(t, err, domain.ErrDuplicateProduct)

	noCode := testProduct("p4", "Tea", "1")
	noCode.ScanCode = ""
	err = catalog.Import(ctx, []domain.Product{noCode})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	cutCommand := testProduct("p5", "Tea\x1d\x56\x01", "1")
	err = catalog.Import(ctx, []domain.Product{cutCommand})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	all, err := repo.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "p1", all[0].ID)
}
