package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	pos     *service.POSService
	timeout time.Duration
}

func NewCartHandler(pos *service.POSService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		pos:     pos,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type ScanRequestDTO struct {
	ScanCode string `json:"scan_code"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type CheckoutRequestDTO struct {
	CustomerName string `json:"customer_name"`
}

type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ScanCode  string `json:"scan_code"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Total string             `json:"total"`
}

func newCartResponse(c *domain.Cart) *CartResponse {
	resp := &CartResponse{
		Lines: make([]CartLineResponse, 0, len(c.Lines)),
		Total: domain.FormatMoney(c.Total()),
	}
	for _, l := range c.Lines {
		resp.Lines = append(resp.Lines, CartLineResponse{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			ScanCode:  l.Product.ScanCode,
			UnitPrice: domain.FormatMoney(l.Product.ActivePrice),
			Quantity:  l.Quantity,
			Subtotal:  domain.FormatMoney(l.Subtotal()),
		})
	}
	return resp
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.pos.Cart(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	cart, err := h.pos.Add(ctx, req.ProductID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(cart))
}

func (h *CartHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ScanRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ScanCode) == "" {
		respondError(w, http.StatusBadRequest, "invalid_scan_code", "scan_code is required")
		return
	}

	cart, err := h.pos.Scan(ctx, req.ScanCode)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(cart))
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil || req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "quantity is required")
		return
	}

	cart, err := h.pos.SetQuantity(ctx, chi.URLParam(r, "id"), *req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.pos.Remove(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.pos.Clear(ctx); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(domain.NewCart()))
}

// Checkout accepts an empty body; the customer name is optional.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	receipt, err := h.pos.Checkout(ctx, req.CustomerName)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}
