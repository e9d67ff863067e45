package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Receipts *ReceiptHandler
	Settings *SettingsHandler
	Backup   *BackupHandler
}

func NewRouter(h Handlers, requestTimeout time.Duration, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5, "application/json", "text/plain", "text/html"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Post("/", h.Products.Create)
			r.Get("/export.xlsx", h.Products.ExportXLSX)
			r.Get("/{id}", h.Products.Get)
			r.Delete("/{id}", h.Products.Delete)
			r.Get("/{id}/barcode.png", h.Products.Barcode)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Post("/scan", h.Cart.Scan)
			r.Put("/items/{id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{id}", h.Cart.RemoveItem)
		})
		r.Post("/checkout", h.Cart.Checkout)
		r.Route("/receipts", func(r chi.Router) {
			r.Get("/", h.Receipts.List)
			r.Get("/{id}", h.Receipts.Get)
			r.Delete("/{id}", h.Receipts.Delete)
			r.Get("/{id}/print", h.Receipts.Print)
			r.Get("/{id}/download", h.Receipts.Download)
			r.Post("/{id}/send", h.Receipts.Send)
		})
		r.Get("/settings", h.Settings.Get)
		r.Put("/settings", h.Settings.Put)
		r.Get("/backup", h.Backup.Export)
		r.Post("/backup", h.Backup.Import)
	})

	return r
}
