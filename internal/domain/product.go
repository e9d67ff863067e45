package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	WeightGrams int64           `json:"weight_grams"`
	MainPrice   decimal.Decimal `json:"main_price"`
	ActivePrice decimal.Decimal `json:"active_price"`
	ScanCode    string          `json:"scan_code"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NameKey is the case-insensitive identity of a product name.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

var ErrDuplicateProduct = errors.New("duplicate product")

// DuplicateProductError reports which unique attribute collided.
type DuplicateProductError struct {
	Field string
	Value string
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("product with %s %q already exists", e.Field, e.Value)
}

func (e *DuplicateProductError) Unwrap() error {
	return ErrDuplicateProduct
}

// CheckUnique verifies that no two products share an id, a case-insensitive
// name or a scan code.
func CheckUnique(products []Product) error {
	ids := make(map[string]struct{}, len(products))
	names := make(map[string]struct{}, len(products))
	codes := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, ok := ids[p.ID]; ok {
			return &DuplicateProductError{Field: "id", Value: p.ID}
		}
		key := NameKey(p.Name)
		if _, ok := names[key]; ok {
			return &DuplicateProductError{Field: "name", Value: p.Name}
		}
		if _, ok := codes[p.ScanCode]; ok {
			return &DuplicateProductError{Field: "scan_code", Value: p.ScanCode}
		}
		ids[p.ID] = struct{}{}
		names[key] = struct{}{}
		codes[p.ScanCode] = struct{}{}
	}
	return nil
}
