package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const shortIDLen = 8

// Receipt is the immutable record of one completed checkout. Items is a copy
// of the cart lines and Total is frozen at checkout time.
type Receipt struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name,omitempty"`
	Items        []CartLine      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (r *Receipt) ShortID() string {
	if len(r.ID) <= shortIDLen {
		return r.ID
	}
	return r.ID[:shortIDLen]
}

// Clone returns a copy whose item slice is independent of r.
func (r *Receipt) Clone() *Receipt {
	c := *r
	c.Items = make([]CartLine, len(r.Items))
	copy(c.Items, r.Items)
	return &c
}
