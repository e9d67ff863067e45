package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/shop-scan-print/internal/backup"
	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/render"
	"github.com/fjod/shop-scan-print/internal/repository"
	"github.com/fjod/shop-scan-print/internal/service"
	"github.com/fjod/shop-scan-print/internal/sink"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts service and storage errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, sink.ErrUnsupportedContent):
		httpStatus = http.StatusBadRequest
		code = "unsupported_format"
	case errors.Is(err, sink.ErrDevice):
		httpStatus = http.StatusBadGateway
		code = "device_error"
	case errors.Is(err, service.ErrEmptyCart):
		httpStatus = http.StatusConflict
		code = "empty_cart"
	case errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, domain.ErrInvalidTaxRate),
		errors.Is(err, render.ErrUnknownFormat),
		errors.Is(err, backup.ErrInvalidBundle):
		httpStatus = http.StatusBadRequest
		code = "invalid_argument"
	case service.IsNotFound(err):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, domain.ErrDuplicateProduct),
		errors.Is(err, repository.ErrDuplicateReceipt):
		httpStatus = http.StatusConflict
		code = "already_exists"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	default:
		zap.L().Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
