package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

const DefaultShopName = "MY SHOP"

var (
	hundred = decimal.NewFromInt(100)

	ErrInvalidTaxRate = errors.New("tax rate must be between 0 and 100")
)

// ShopConfig is read by the renderers at render time. Changing it never
// alters the total stored on an existing receipt.
type ShopConfig struct {
	ShopName       string          `json:"shop_name"`
	ShopAddress    string          `json:"shop_address"`
	ShopPhone      string          `json:"shop_phone"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	CurrencySymbol string          `json:"currency_symbol"`
	Timezone       string          `json:"timezone,omitempty"`
	AutoConnect    bool            `json:"auto_connect"`
	PrinterName    string          `json:"printer_name"`
}

func DefaultShopConfig() ShopConfig {
	return ShopConfig{
		ShopName:       DefaultShopName,
		TaxRate:        decimal.Zero,
		CurrencySymbol: "$",
	}
}

func (c ShopConfig) Validate() error {
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThan(hundred) {
		return ErrInvalidTaxRate
	}
	return nil
}

func (c ShopConfig) HasTax() bool {
	return c.TaxRate.IsPositive()
}

// TaxBreakdown splits a tax-inclusive total into a net subtotal and the tax
// portion, both rounded to cents. subtotal + tax always equals total rounded
// to cents.
func TaxBreakdown(total, ratePercent decimal.Decimal) (subtotal, tax decimal.Decimal) {
	divisor := decimal.NewFromInt(1).Add(ratePercent.Div(hundred))
	subtotal = total.DivRound(divisor, 2)
	tax = total.Round(2).Sub(subtotal)
	return subtotal, tax
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
