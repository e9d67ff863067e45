package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReceipt(id string, at time.Time) *domain.Receipt {
	rice := testProduct("p1", "Rice", "1", "50.00")
	return &domain.Receipt{
		ID:        id,
		Items:     []domain.CartLine{{Product: rice, Quantity: 2}},
		Total:     decimal.RequireFromString("100.00"),
		CreatedAt: at,
	}
}

func TestMemoryProducts(t *testing.T) {
	repo := NewMemoryProductRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, testProduct("p1", "Rice", "1", "50")))
	err := repo.CreateProduct(ctx, testProduct("p2", "RICE", "2", "50"))
	assert.ErrorIs(t, err, domain.ErrDuplicateProduct)

	got, err := repo.GetProductByScanCode(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	require.NoError(t, repo.DeleteProduct(ctx, "p1"))
	_, err = repo.GetProduct(ctx, "p1")
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, repo.DeleteProduct(ctx, "p1"), ErrProductNotFound)
}

func TestMemoryProducts_ReplaceAllValidatesFirst(t *testing.T) {
	repo := NewMemoryProductRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateProduct(ctx, testProduct("old", "Old", "0", "1")))

	err := repo.ReplaceAll(ctx, []domain.Product{
		testProduct("p1", "Rice", "1", "1"),
		testProduct("p2", "Oil", "1", "1"),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateProduct)

	all, err := repo.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "old", all[0].ID)
}

func TestMemoryHistory_NewestFirst(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, h.Append(ctx, testReceipt("r1", base)))
	require.NoError(t, h.Append(ctx, testReceipt("r2", base.Add(time.Minute))))

	list, err := h.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r2", list[0].ID)
	assert.Equal(t, "r1", list[1].ID)

	assert.ErrorIs(t, h.Append(ctx, testReceipt("r1", base)), ErrDuplicateReceipt)
}

func TestMemoryHistory_StoresCopies(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	r := testReceipt("r1", time.Now())
	require.NoError(t, h.Append(ctx, r))

	r.Items[0].Quantity = 99
	got, err := h.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)

	got.Items[0].Quantity = 42
	again, err := h.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestMemoryHistory_Delete(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	require.NoError(t, h.Append(ctx, testReceipt("r1", time.Now())))

	require.NoError(t, h.Delete(ctx, "r1"))
	_, err := h.Get(ctx, "r1")
	assert.ErrorIs(t, err, ErrReceiptNotFound)
	assert.ErrorIs(t, h.Delete(ctx, "r1"), ErrReceiptNotFound)
}
