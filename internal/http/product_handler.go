package http

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/shop-scan-print/internal/backup"
	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/scancode"
	"github.com/fjod/shop-scan-print/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	defaultBarcodeWidth  = 300
	defaultBarcodeHeight = 80
	maxBarcodeSide       = 2000
)

type ProductHandler struct {
	catalog *service.CatalogService
	timeout time.Duration
}

func NewProductHandler(catalog *service.CatalogService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.NewProduct
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	p, err := h.catalog.AddProduct(ctx, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Barcode renders the product's scan code as a Code 128 PNG. Size can be
// adjusted with the w and h query parameters.
func (h *ProductHandler) Barcode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	width, ok := sizeParam(r, "w", defaultBarcodeWidth)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_size", "w must be between 1 and 2000")
		return
	}
	height, ok := sizeParam(r, "h", defaultBarcodeHeight)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_size", "h must be between 1 and 2000")
		return
	}

	p, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := scancode.WritePNG(&buf, p.ScanCode, width, height); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "barcode_error", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *ProductHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := backup.WriteProductsXLSX(&buf, products); err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", backup.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="products.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func sizeParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > maxBarcodeSide {
		return 0, false
	}
	return v, true
}
