package render

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fjod/shop-scan-print/internal/domain"
)

const (
	textWidth   = 32
	qtyWidth    = 4
	amountWidth = 10

	// below this the item name moves to its own line
	minNameWidth = 8
)

// TextDocument renders a fixed-width receipt for thermal printers and plain
// text downloads.
func TextDocument(r *domain.Receipt, cfg domain.ShopConfig) string {
	var b strings.Builder
	rule := strings.Repeat("=", textWidth)
	thin := strings.Repeat("-", textWidth)

	line(&b, rule)
	line(&b, center(printable(cfg.ShopName)))
	if cfg.ShopAddress != "" {
		line(&b, center(printable(cfg.ShopAddress)))
	}
	if cfg.ShopPhone != "" {
		line(&b, center("Tel: "+printable(cfg.ShopPhone)))
	}
	line(&b, rule)
	line(&b, "Receipt #"+r.ShortID())
	line(&b, FormatTimestamp(r.CreatedAt, cfg.Timezone))
	if r.CustomerName != "" {
		line(&b, truncate("Customer: "+printable(r.CustomerName), textWidth))
	}
	line(&b, thin)
	for _, l := range r.Items {
		itemRow(&b, printable(l.Product.Name), strconv.Itoa(l.Quantity)+"x", printable(money(cfg, l.Subtotal())))
	}
	line(&b, thin)
	for _, t := range totals(r, cfg) {
		labeledRow(&b, t.Label, printable(t.Amount))
	}
	line(&b, rule)
	line(&b, center("Thank you!"))
	line(&b, rule)
	return b.String()
}

// itemRow keeps the name, quantity and amount columns aligned while they fit.
// Wider quantities or amounts take space from the name. When too little is
// left the name gets a line of its own.
func itemRow(b *strings.Builder, name, qty, amount string) {
	var right string
	if utf8.RuneCountInString(qty) <= qtyWidth && utf8.RuneCountInString(amount) < amountWidth {
		right = padLeft(qty, qtyWidth) + padLeft(amount, amountWidth)
	} else {
		right = qty + " " + amount
	}

	nameSlot := textWidth - 1 - utf8.RuneCountInString(right)
	if nameSlot >= minNameWidth {
		line(b, padRight(truncate(name, nameSlot), nameSlot)+" "+right)
		return
	}
	line(b, truncate(name, textWidth))
	labeledRow(b, "", right)
}

// labeledRow right-aligns value against the receipt edge, keeping at least
// one space after label. A value that cannot share the line goes below it.
func labeledRow(b *strings.Builder, label, value string) {
	n := utf8.RuneCountInString(value)
	if utf8.RuneCountInString(label)+1+n <= textWidth {
		line(b, padRight(label, textWidth-n)+value)
		return
	}
	if label != "" {
		line(b, truncate(label, textWidth))
	}
	line(b, padLeft(value, textWidth))
}

// printable replaces control characters so user text cannot inject printer
// commands or break the layout.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

func line(b *strings.Builder, s string) {
	b.WriteString(s)
	b.WriteByte('\n')
}

func center(s string) string {
	n := utf8.RuneCountInString(s)
	if n >= textWidth {
		return truncate(s, textWidth)
	}
	return strings.Repeat(" ", (textWidth-n)/2) + s
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width])
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func padLeft(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}
