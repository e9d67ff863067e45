package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/repository"
	"github.com/fjod/shop-scan-print/internal/scancode"
	"github.com/fjod/shop-scan-print/internal/service"
	"github.com/fjod/shop-scan-print/internal/settings"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
)

type fixture struct {
	svc     *Service
	catalog *service.CatalogService
	store   *settings.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := service.NewCatalogService(repository.NewMemoryProductRepository(), scancode.NewSequence("SKU", 4), zap.NewNop())
	store := settings.NewMemoryStore(domain.DefaultShopConfig())
	svc := NewService(catalog, store)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC) }
	return &fixture{svc: svc, catalog: catalog, store: store}
}

func (f *fixture) addProduct(t *testing.T, name, price string) *domain.Product {
	t.Helper()
	p, err := f.catalog.AddProduct(context.Background(), service.NewProduct{
		Name:        name,
		WeightGrams: 1000,
		MainPrice:   decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return p
}

func TestExportImportRestoresCatalogAndSettings(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t)
	src.addProduct(t, "Rice", "50")
	src.addProduct(t, "Oil", "120")
	cfg := domain.DefaultShopConfig()
	cfg.ShopName = "Corner Store"
	cfg.TaxRate = decimal.RequireFromString("5")
	require.NoError(t, src.store.Save(ctx, cfg))

	name, data, err := src.svc.ExportJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pos-backup-2024-03-01.json", name)

	dst := newFixture(t)
	dst.addProduct(t, "Stale", "1")
	require.NoError(t, dst.svc.Import(ctx, data))

	products, err := dst.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Rice", products[0].Name)
	assert.Equal(t, "SKU0001", products[0].ScanCode)
	assert.True(t, products[1].ActivePrice.Equal(decimal.NewFromInt(120)))

	got, err := dst.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Corner Store", got.ShopName)
	assert.True(t, got.TaxRate.Equal(decimal.NewFromInt(5)))
}

func TestImportWithoutSettingsKeepsCurrentSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cfg := domain.DefaultShopConfig()
	cfg.ShopName = "Keep Me"
	require.NoError(t, f.store.Save(ctx, cfg))

	data := `{"products":[{"id":"p1","name":"Rice","weight_grams":500,"main_price":"10","active_price":"9.5","scan_code":"123"}]}`
	require.NoError(t, f.svc.Import(ctx, []byte(data)))

	got, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Keep Me", got.ShopName)

	p, err := f.catalog.LookupScanCode(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "9.5", p.ActivePrice.String())
}

func TestImportPartialSettingsFillsDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	data := `{"products":[],"settings":{"shop_name":"Kiosk"}}`
	require.NoError(t, f.svc.Import(ctx, []byte(data)))

	got, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kiosk", got.ShopName)
	assert.Equal(t, "$", got.CurrencySymbol)
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"not json":         `{"products":`,
		"missing list":     `{"settings":{}}`,
		"missing code":     `{"products":[{"id":"p1","name":"Rice","weight_grams":1,"main_price":"1","active_price":"1"}]}`,
		"zero weight":      `{"products":[{"id":"p1","name":"Rice","weight_grams":0,"main_price":"1","active_price":"1","scan_code":"1"}]}`,
		"bad tax type":     `{"products":[],"settings":{"tax_rate":true}}`,
		"tax out of range": `{"products":[],"settings":{"tax_rate":"150"}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			existing := f.addProduct(t, "Rice", "50")

			err := f.svc.Import(context.Background(), []byte(doc))
			assert.ErrorIs(t, err, ErrInvalidBundle)

			products, err := f.catalog.List(context.Background())
			require.NoError(t, err)
			require.Len(t, products, 1)
			assert.Equal(t, existing.ID, products[0].ID)
		})
	}
}

func TestImportDuplicateLeavesCatalogUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addProduct(t, "Rice", "50")

	data := `{"products":[
		{"id":"a","name":"Tea","weight_grams":1,"main_price":"1","active_price":"1","scan_code":"1"},
		{"id":"b","name":"TEA","weight_grams":1,"main_price":"1","active_price":"1","scan_code":"2"}]}`
	err := f.svc.Import(ctx, []byte(data))
	assert.ErrorIs(t, err, domain.ErrDuplicateProduct)

	products, err := f.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Rice", products[0].Name)
}

func TestExportBundleShape(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "Rice", "50")

	_, data, err := f.svc.ExportJSON(context.Background())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "products")
	assert.Contains(t, doc, "settings")
	assert.Equal(t, "2024-03-01T23:30:00Z", doc["export_date"])
}

func TestWriteProductsXLSX(t *testing.T) {
	rice := domain.Product{
		ID:          "p1",
		Name:        "Rice",
		WeightGrams: 1000,
		MainPrice:   decimal.RequireFromString("50"),
		ActivePrice: decimal.RequireFromString("45.5"),
		ScanCode:    "SKU0001",
		CreatedAt:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProductsXLSX(&buf, []domain.Product{rice}))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	assert.Equal(t, "Products", sheet.Name)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Name", sheet.Rows[0].Cells[1].String())

	row := sheet.Rows[1]
	assert.Equal(t, "p1", row.Cells[0].String())
	assert.Equal(t, "Rice", row.Cells[1].String())
	assert.Equal(t, "50.00", row.Cells[3].String())
	assert.Equal(t, "45.50", row.Cells[4].String())
	assert.Equal(t, "SKU0001", row.Cells[5].String())
}
