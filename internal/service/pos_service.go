package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/shop-scan-print/internal/cache"
	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/publisher"
	"github.com/fjod/shop-scan-print/internal/render"
	"github.com/fjod/shop-scan-print/internal/repository"
	"github.com/fjod/shop-scan-print/internal/settings"
	"github.com/fjod/shop-scan-print/internal/sink"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fjod/shop-scan-print/internal/service")

// POSService is the checkout session of one terminal. It owns the active cart
// and the order of checkout steps; the cart and receipt logic itself lives
// in domain and ReceiptBuilder.
type POSService struct {
	terminalID string
	catalog    *CatalogService
	carts      cache.CartCache
	history    repository.HistoryRepository
	settings   settings.Store
	builder    *ReceiptBuilder
	events     publisher.ReceiptPublisher
	log        *zap.Logger

	// one session per terminal; HTTP requests must not interleave cart edits
	mu sync.Mutex
}

func NewPOSService(
	terminalID string,
	catalog *CatalogService,
	carts cache.CartCache,
	history repository.HistoryRepository,
	store settings.Store,
	events publisher.ReceiptPublisher,
	log *zap.Logger,
) *POSService {
	return &POSService{
		terminalID: terminalID,
		catalog:    catalog,
		carts:      carts,
		history:    history,
		settings:   store,
		builder:    NewReceiptBuilder(),
		events:     events,
		log:        log,
	}
}

func (s *POSService) Cart(ctx context.Context) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCart(ctx)
}

func (s *POSService) Add(ctx context.Context, productID string) (*domain.Cart, error) {
	p, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, func(c *domain.Cart) { c.AddProduct(*p) })
}

// Scan resolves an already decoded scan code and adds one unit.
func (s *POSService) Scan(ctx context.Context, code string) (*domain.Cart, error) {
	p, err := s.catalog.LookupScanCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, func(c *domain.Cart) { c.AddProduct(*p) })
}

func (s *POSService) SetQuantity(ctx context.Context, productID string, qty int) (*domain.Cart, error) {
	return s.mutate(ctx, func(c *domain.Cart) { c.SetQuantity(productID, qty) })
}

func (s *POSService) Remove(ctx context.Context, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, func(c *domain.Cart) { c.RemoveProduct(productID) })
}

func (s *POSService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts.Delete(ctx, s.terminalID)
}

// Checkout builds the receipt, stores it and only then clears the cart. If
// storing fails the cart is kept so the cashier can try again. The receipt
// event is published after the terminal lock is released.
func (s *POSService) Checkout(ctx context.Context, customerName string) (*domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "pos.checkout")
	defer span.End()

	receipt, err := s.issue(ctx, customerName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("receipt.id", receipt.ID),
		attribute.Int("receipt.lines", len(receipt.Items)),
		attribute.String("receipt.total", domain.FormatMoney(receipt.Total)),
	)

	if err := s.events.PublishReceipt(context.WithoutCancel(ctx), receipt); err != nil {
		s.log.Warn("failed to publish receipt event",
			zap.String("receipt_id", receipt.ID),
			zap.Error(err))
	}

	s.log.Info("checkout completed",
		zap.String("terminal_id", s.terminalID),
		zap.String("receipt_id", receipt.ID),
		zap.Int("lines", len(receipt.Items)),
		zap.String("total", domain.FormatMoney(receipt.Total)))
	return receipt, nil
}

func (s *POSService) issue(ctx context.Context, customerName string) (*domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.loadCart(ctx)
	if err != nil {
		return nil, err
	}

	receipt, err := s.builder.Checkout(cart, customerName)
	if err != nil {
		return nil, err
	}

	if err := s.history.Append(ctx, receipt); err != nil {
		return nil, fmt.Errorf("store receipt: %w", err)
	}

	if err := s.carts.Delete(ctx, s.terminalID); err != nil {
		s.log.Error("failed to clear cart after checkout",
			zap.String("terminal_id", s.terminalID),
			zap.String("receipt_id", receipt.ID),
			zap.Error(err))
	}
	return receipt, nil
}

func (s *POSService) Receipts(ctx context.Context) ([]*domain.Receipt, error) {
	return s.history.List(ctx)
}

func (s *POSService) Receipt(ctx context.Context, id string) (*domain.Receipt, error) {
	return s.history.Get(ctx, id)
}

func (s *POSService) DeleteReceipt(ctx context.Context, id string) error {
	if err := s.history.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("receipt deleted", zap.String("receipt_id", id))
	return nil
}

// Document renders a stored receipt with the current shop settings.
func (s *POSService) Document(ctx context.Context, id string, format render.Format) (sink.Document, error) {
	receipt, err := s.history.Get(ctx, id)
	if err != nil {
		return sink.Document{}, err
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return sink.Document{}, fmt.Errorf("load settings: %w", err)
	}
	body, err := render.Render(receipt, cfg, format)
	if err != nil {
		return sink.Document{}, err
	}
	return sink.Document{
		Name:        render.FileName(receipt, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

// Send renders a stored receipt and hands it to dst. A device failure is
// returned as is; the stored receipt is untouched and can be sent again.
func (s *POSService) Send(ctx context.Context, id string, format render.Format, dst sink.DeviceSink) error {
	doc, err := s.Document(ctx, id, format)
	if err != nil {
		return err
	}
	if err := dst.Send(ctx, doc); err != nil {
		s.log.Warn("receipt delivery failed",
			zap.String("receipt_id", id),
			zap.String("format", string(format)),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *POSService) mutate(ctx context.Context, apply func(*domain.Cart)) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.loadCart(ctx)
	if err != nil {
		return nil, err
	}
	apply(cart)
	if err := s.carts.Set(ctx, s.terminalID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *POSService) loadCart(ctx context.Context) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, s.terminalID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return domain.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}
