package http

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/render"
	"github.com/fjod/shop-scan-print/internal/service"
	"github.com/fjod/shop-scan-print/internal/sink"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Send targets accepted by POST /receipts/{id}/send.
const (
	TargetPrinter = "printer"
	TargetArchive = "archive"
	TargetFile    = "file"
)

type ReceiptHandler struct {
	pos     *service.POSService
	sinks   map[string]sink.DeviceSink
	timeout time.Duration
}

// NewReceiptHandler takes the configured device sinks keyed by target name.
// Targets missing from the map are rejected.
func NewReceiptHandler(pos *service.POSService, sinks map[string]sink.DeviceSink, timeout time.Duration) *ReceiptHandler {
	return &ReceiptHandler{
		pos:     pos,
		sinks:   sinks,
		timeout: timeout,
	}
}

type ReceiptsResponse struct {
	Receipts []*domain.Receipt `json:"receipts"`
}

type SendRequestDTO struct {
	Target string `json:"target"`
	Format string `json:"format"`
}

type SendResponse struct {
	ReceiptID string `json:"receipt_id"`
	Target    string `json:"target"`
	Format    string `json:"format"`
}

func (h *ReceiptHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	receipts, err := h.pos.Receipts(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &ReceiptsResponse{Receipts: receipts})
}

func (h *ReceiptHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	receipt, err := h.pos.Receipt(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

func (h *ReceiptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.pos.DeleteReceipt(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Print returns the printable HTML page inline.
func (h *ReceiptHandler) Print(w http.ResponseWriter, r *http.Request) {
	h.respondDocument(w, r, render.FormatHTML, false)
}

// Download returns the receipt as an attachment, plain text unless the
// format query parameter asks for html.
func (h *ReceiptHandler) Download(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.respondDocument(w, r, format, true)
}

func (h *ReceiptHandler) respondDocument(w http.ResponseWriter, r *http.Request, format render.Format, attachment bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	doc, err := h.pos.Document(ctx, id, format)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	// Headers are already written when the response sink fails.
	if err := sink.NewResponse(w, attachment).Send(ctx, doc); err != nil {
		zap.L().Warn("failed to write receipt document", zap.String("receipt_id", id), zap.Error(err))
	}
}

func (h *ReceiptHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SendRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	target := strings.ToLower(strings.TrimSpace(req.Target))
	dst, ok := h.sinks[target]
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown_target", "target must be one of: "+strings.Join(h.targets(), ", "))
		return
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.pos.Send(ctx, id, format, dst); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &SendResponse{ReceiptID: id, Target: target, Format: string(format)})
}

func (h *ReceiptHandler) targets() []string {
	names := make([]string, 0, len(h.sinks))
	for name := range h.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
