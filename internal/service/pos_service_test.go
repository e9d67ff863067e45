package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fjod/shop-scan-print/internal/cache"
	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/render"
	"github.com/fjod/shop-scan-print/internal/repository"
	"github.com/fjod/shop-scan-print/internal/settings"
	"github.com/fjod/shop-scan-print/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []*domain.Receipt
	err       error
	onPublish func(ctx context.Context)
}

func (p *recordingPublisher) PublishReceipt(ctx context.Context, r *domain.Receipt) error {
	if p.onPublish != nil {
		p.onPublish(ctx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, r)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type failingHistory struct {
	*repository.MemoryHistory
}

func (failingHistory) Append(context.Context, *domain.Receipt) error {
	return errors.New("disk full")
}

type captureSink struct {
	docs []sink.Document
	err  error
}

func (c *captureSink) Send(_ context.Context, doc sink.Document) error {
	if c.err != nil {
		return c.err
	}
	c.docs = append(c.docs, doc)
	return nil
}

type posFixture struct {
	pos      *POSService
	carts    *cache.MemoryCache
	history  *repository.MemoryHistory
	settings *settings.MemoryStore
	events   *recordingPublisher
	rice     *domain.Product
	oil      *domain.Product
}

func newPOS(t *testing.T) *posFixture {
	t.Helper()
	ctx := context.Background()
	catalog, _ := newCatalog(t)
	rice, err := catalog.AddProduct(ctx, NewProduct{Name: "Rice", WeightGrams: 1000, MainPrice: money("50.00")})
	require.NoError(t, err)
	oil, err := catalog.AddProduct(ctx, NewProduct{Name: "Oil", WeightGrams: 1000, MainPrice: money("120.00")})
	require.NoError(t, err)

	f := &posFixture{
		carts:    cache.NewMemoryCache(),
		history:  repository.NewMemoryHistory(),
		settings: settings.NewMemoryStore(domain.DefaultShopConfig()),
		events:   &recordingPublisher{},
		rice:     rice,
		oil:      oil,
	}
	f.pos = NewPOSService("till-1", catalog, f.carts, f.history, f.settings, f.events, zap.NewNop())
	return f
}

func TestPOS_CartOperations(t *testing.T) {
	f := newPOS(t)
	ctx := context.Background()

	_, err := f.pos.Add(ctx, f.rice.ID)
	require.NoError(t, err)
	_, err = f.pos.Scan(ctx, f.rice.ScanCode)
	require.NoError(t, err)
	cart, err := f.pos.Add(ctx, f.oil.ID)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, "220.00", domain.FormatMoney(cart.Total()))

	cart, err = f.pos.SetQuantity(ctx, f.oil.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "460.00", domain.FormatMoney(cart.Total()))

	cart, err = f.pos.SetQuantity(ctx, f.oil.ID, 0)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)

	cart, err = f.pos.Remove(ctx, "not-in-cart")
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)

	require.NoError(t, f.pos.Clear(ctx))
	cart, err = f.pos.Cart(ctx)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestPOS_UnknownProduct(t *testing.T) {
	f := newPOS(t)
	ctx := context.Background()

	_, err := f.pos.Scan(ctx, "0000000000000")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	_, err = f.pos.Add(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestPOS_Checkout(t *testing.T) {
	f := newPOS(t)
	ctx := context.Background()
	_, err := f.pos.Add(ctx, f.rice.ID)
	require.NoError(t, err)
	_, err = f.pos.Add(ctx, f.rice.ID)
	require.NoError(t, err)
	_, err = f.pos.Add(ctx, f.oil.ID)
	require.NoError(t, err)

	r, err := f.pos.Checkout(ctx, "Asha")
	require.NoError(t, err)
	assert.Equal(t, "220.00", domain.FormatMoney(r.Total))

	cart, err := f.pos.Cart(ctx)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty(), "cart is cleared after checkout")

	list, err := f.pos.Receipts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)

	require.Len(t, f.events.published, 1)
	assert.Equal(t, r.ID, f.events.published[0].ID)
}

func TestPOS_CheckoutEmptyCart(t *testing.T) {
	f := newPOS(t)

	_, err := f.pos.Checkout(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyCart)

	list, err := f.pos.Receipts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPOS_CheckoutKeepsCartWhenHistoryFails(t *testing.T) {
	f := newPOS(t)
	ctx := context.Background()
	f.pos.history = failingHistory{repository.NewMemoryHistory()}
	_, err := f.pos.Add(ctx, f.rice.ID)
	require.NoError(t, err)

	_, err = f.pos.Checkout(ctx, "")
	require.ErrorContains(t, err, "disk full")

	cart, err := f.pos.Cart(ctx)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
	assert.Empty(t, f.events.published)
}

func TestPOS_PublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newPOS(t)
	ctx := context.Background()
	f.events.err = errors.New("broker down")
	_, err := f.pos.Add(ctx, f.rice.ID)
	require.NoError(t, err)

	r, err := f.pos.Checkout(ctx, "")
	require.NoError(t, err)

	stored, err := f.pos.Receipt(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, stored.ID)
}

func TestPOS_CartIsUsableWhileReceiptEventIsPublished(t *testing.T) {
	f := newPOS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var publishCtxErr error
	f.events.onPublish = func(pubCtx context.Context) {
		cancel()
		publishCtxErr = pubCtx.Err()

		done := make(chan error, 1)
		go func() {
			_, err := f.pos.Add(context.Background(), f.oil.ID)
			done <- err
		}()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("cart edit blocked while the receipt event was being published")
		}
	}

	_, err := f.pos.Add(ctx, f.rice.ID)
	require.NoError(t, err)
	receipt, err := f.pos.Checkout(ctx, "")
	require.NoError(t, err)

	assert.NoError(t, publishCtxErr)
	require.Len(t, f.events.published, 1)
	assert.Equal(t, receipt.ID, f.events.published[0].ID)

	cart, err := f.pos.Cart(context.Background())
	require.NoError(t, err)
	_, hasRice := cart.Line(f.rice.ID)
	assert.False(t, hasRice)
	oil, ok := cart.Line(f.oil.ID)
	require.True(t, ok)
	assert.Equal(t, 1, oil.Quantity)
}

func TestPOS_SendRendersWithCurrentSettings(t *testing.T) {
	f := newPOS(t)
	ctx := context.Background()
	_, err := f.pos.Add(ctx, f.rice.ID)
	require.NoError(t, err)
	r, err := f.pos.Checkout(ctx, "")
	require.NoError(t, err)

	cfg := domain.DefaultShopConfig()
	cfg.ShopName = "Corner Grocer"
	cfg.TaxRate = money("10")
	require.NoError(t, f.settings.Save(ctx, cfg))

	dst := &captureSink{}
	require.NoError(t, f.pos.Send(ctx, r.ID, render.FormatText, dst))

	require.Len(t, dst.docs, 1)
	doc := dst.docs[0]
	assert.Equal(t, "receipt-"+r.ID+".txt", doc.Name)
	assert.Equal(t, "text/plain; charset=utf-8", doc.ContentType)
	body := string(doc.Body)
	assert.Contains(t, body, "Corner Grocer")
	assert.Contains(t, body, "$45.45")
	assert.Contains(t, body, "$4.55")
	assert.True(t, strings.Contains(body, "$50.00"))

	stored, err := f.pos.Receipt(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", domain.FormatMoney(stored.Total), "settings never change a stored total")
}

func TestPOS_SendDeviceErrorIsRetryable(t *testing.T) {
	f := newPOS(t)
	ctx := context.Background()
	_, err := f.pos.Add(ctx, f.rice.ID)
	require.NoError(t, err)
	r, err := f.pos.Checkout(ctx, "")
	require.NoError(t, err)

	dst := &captureSink{err: &sink.DeviceError{Sink: "printer", Err: errors.New("offline")}}
	err = f.pos.Send(ctx, r.ID, render.FormatText, dst)
	assert.ErrorIs(t, err, sink.ErrDevice)

	dst.err = nil
	require.NoError(t, f.pos.Send(ctx, r.ID, render.FormatText, dst))
	require.Len(t, dst.docs, 1)
}

func TestPOS_DeleteReceipt(t *testing.T) {
	f := newPOS(t)
	ctx := context.Background()
	_, err := f.pos.Add(ctx, f.rice.ID)
	require.NoError(t, err)
	r, err := f.pos.Checkout(ctx, "")
	require.NoError(t, err)

	require.NoError(t, f.pos.DeleteReceipt(ctx, r.ID))
	_, err = f.pos.Receipt(ctx, r.ID)
	assert.ErrorIs(t, err, repository.ErrReceiptNotFound)

	err = f.pos.Send(ctx, r.ID, render.FormatText, &captureSink{})
	assert.True(t, IsNotFound(err))
}
