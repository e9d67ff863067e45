// Package render turns a receipt and the shop configuration into documents.
// Rendering is pure: the same receipt and configuration always produce the
// same bytes.
package render

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/shopspring/decimal"
)

const TimestampLayout = "2006-01-02 15:04:05"

type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

var ErrUnknownFormat = errors.New("unknown receipt format")

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

func (f Format) Extension() string {
	if f == FormatHTML {
		return "html"
	}
	return "txt"
}

// FileName is the download name of a rendered receipt.
func FileName(r *domain.Receipt, f Format) string {
	return fmt.Sprintf("receipt-%s.%s", r.ID, f.Extension())
}

func Render(r *domain.Receipt, cfg domain.ShopConfig, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(TextDocument(r, cfg)), nil
	case FormatHTML:
		doc, err := PrintableDocument(r, cfg)
		if err != nil {
			return nil, err
		}
		return []byte(doc), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// FormatTimestamp uses the configured timezone, or UTC when none is set or
// it cannot be loaded.
func FormatTimestamp(t time.Time, timezone string) string {
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	return t.In(loc).Format(TimestampLayout)
}

type totalRow struct {
	Label  string
	Amount string
	Strong bool
}

func totals(r *domain.Receipt, cfg domain.ShopConfig) []totalRow {
	if !cfg.HasTax() {
		return []totalRow{{Label: "TOTAL", Amount: money(cfg, r.Total), Strong: true}}
	}
	subtotal, tax := domain.TaxBreakdown(r.Total, cfg.TaxRate)
	return []totalRow{
		{Label: "Subtotal", Amount: money(cfg, subtotal)},
		{Label: fmt.Sprintf("Tax (%s%%)", cfg.TaxRate.String()), Amount: money(cfg, tax)},
		{Label: "TOTAL", Amount: money(cfg, r.Total), Strong: true},
	}
}

func money(cfg domain.ShopConfig, d decimal.Decimal) string {
	return cfg.CurrencySymbol + domain.FormatMoney(d)
}
