package render

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/fjod/shop-scan-print/internal/domain"
)

var printableTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt #{{.ShortID}}</title>
<style>
body { font-family: monospace; width: 3in; margin: 0; padding: 10px; }
.center { text-align: center; }
.line { border-bottom: 1px dashed #000; margin: 5px 0; }
table { width: 100%; border-collapse: collapse; }
td { padding: 2px 0; }
.right { text-align: right; }
</style>
</head>
<body>
<div class="center">
<h2>{{.ShopName}}</h2>
{{- if .ShopAddress}}
<p>{{.ShopAddress}}</p>
{{- end}}
{{- if .ShopPhone}}
<p>Tel: {{.ShopPhone}}</p>
{{- end}}
<p>Receipt #{{.ShortID}}</p>
<p>{{.Timestamp}}</p>
{{- if .Customer}}
<p>Customer: {{.Customer}}</p>
{{- end}}
</div>
<div class="line"></div>
<table>
{{- range .Rows}}
<tr>
<td>{{.Name}}</td>
<td class="right">{{.Quantity}}x</td>
<td class="right">{{.Amount}}</td>
</tr>
{{- end}}
</table>
<div class="line"></div>
<table>
{{- range .Totals}}
<tr>
{{- if .Strong}}
<td><strong>{{.Label}}</strong></td>
<td class="right"><strong>{{.Amount}}</strong></td>
{{- else}}
<td>{{.Label}}</td>
<td class="right">{{.Amount}}</td>
{{- end}}
</tr>
{{- end}}
</table>
<div class="line"></div>
<div class="center">
<p>Thank you for your business!</p>
</div>
</body>
</html>
`))

type printableRow struct {
	Name     string
	Quantity string
	Amount   string
}

type printableView struct {
	ShopName    string
	ShopAddress string
	ShopPhone   string
	ShortID     string
	Timestamp   string
	Customer    string
	Rows        []printableRow
	Totals      []totalRow
}

// PrintableDocument renders an HTML page sized for a 3 inch receipt printer.
// All receipt and shop values are escaped.
func PrintableDocument(r *domain.Receipt, cfg domain.ShopConfig) (string, error) {
	view := printableView{
		ShopName:    cfg.ShopName,
		ShopAddress: cfg.ShopAddress,
		ShopPhone:   cfg.ShopPhone,
		ShortID:     r.ShortID(),
		Timestamp:   FormatTimestamp(r.CreatedAt, cfg.Timezone),
		Customer:    r.CustomerName,
		Rows:        make([]printableRow, 0, len(r.Items)),
		Totals:      totals(r, cfg),
	}
	for _, l := range r.Items {
		view.Rows = append(view.Rows, printableRow{
			Name:     l.Product.Name,
			Quantity: strconv.Itoa(l.Quantity),
			Amount:   money(cfg, l.Subtotal()),
		})
	}

	var b strings.Builder
	if err := printableTmpl.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}
