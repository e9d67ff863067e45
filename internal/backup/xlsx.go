package backup

import (
	"fmt"
	"io"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/tealeg/xlsx"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func WriteProductsXLSX(w io.Writer, products []domain.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headers := []string{"ID", "Name", "WeightGrams", "MainPrice", "ActivePrice", "ScanCode", "CreatedAt"}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.WeightGrams)
		row.AddCell().SetValue(domain.FormatMoney(p.MainPrice))
		row.AddCell().SetValue(domain.FormatMoney(p.ActivePrice))
		row.AddCell().SetValue(p.ScanCode)
		row.AddCell().SetValue(p.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
