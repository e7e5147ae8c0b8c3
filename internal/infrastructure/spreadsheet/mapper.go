package spreadsheet

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rigsync/backend/internal/domain"
)

// Column layout of an import sheet
const (
	ColumnQuantity = iota
	ColumnDescription
	ColumnSoftwareCode
	ColumnPrice
)

// MapRows converts sheet rows into raw import rows. The header (index 0) and
// fully blank lines are skipped; row numbers keep the sheet's 1-based
// numbering so the first data row is 2.
func MapRows(rows [][]string) []domain.RawRow {
	if len(rows) <= 1 {
		return nil
	}

	out := make([]domain.RawRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if isBlank(cells) {
			continue
		}
		out = append(out, domain.RawRow{
			RowNumber:    i + 2,
			Quantity:     parseQuantity(cell(cells, ColumnQuantity)),
			Description:  cell(cells, ColumnDescription),
			SoftwareCode: cell(cells, ColumnSoftwareCode),
			Price:        parsePrice(cell(cells, ColumnPrice)),
		})
	}
	return out
}

func cell(cells []string, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseQuantity falls back to 1 for blank, unparsable or non-positive values
func parseQuantity(value string) int {
	if value == "" {
		return 1
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n > 0 {
			return n
		}
		return 1
	}
	// spreadsheets often render whole numbers as "2.0"
	if d, err := decimal.NewFromString(value); err == nil && d.IsInteger() && d.IsPositive() {
		return int(d.IntPart())
	}
	return 1
}

func parsePrice(value string) *decimal.Decimal {
	value = strings.TrimLeft(value, "$€£ ")
	value = strings.ReplaceAll(value, ",", "")
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}
