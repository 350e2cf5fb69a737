// Package export renders transaction lists for download.
package export

import (
	"io"
	"strings"
	"time"

	"finance-tracker/internal/core"
)

// ContentType is the MIME type of the CSV download.
const ContentType = "text/csv"

// Header is the first CSV line.
var Header = []string{"Date", "Type", "Category", "Amount", "Notes"}

// Rows converts transactions to cells in Header order, keeping their order.
func Rows(txs []core.Transaction) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			tx.Date.String(),
			tx.Type.String(),
			tx.Category,
			tx.Amount.String(),
			tx.Notes,
		})
	}
	return rows
}

// ToCSV renders the header plus one line per transaction. Data cells are
// always double-quoted with embedded quotes doubled; lines are separated by
// "\n" with no trailing newline.
func ToCSV(txs []core.Transaction) string {
	var b strings.Builder
	_ = WriteCSV(&b, txs)
	return b.String()
}

// WriteCSV streams the same output as ToCSV to w.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if _, err := io.WriteString(w, strings.Join(Header, ",")); err != nil {
		return err
	}
	for _, row := range Rows(txs) {
		quoted := make([]string, len(row))
		for i, cell := range row {
			quoted[i] = quote(cell)
		}
		if _, err := io.WriteString(w, "\n"+strings.Join(quoted, ",")); err != nil {
			return err
		}
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FileName is the suggested download name for an export made at now.
func FileName(now time.Time) string {
	return "finance-tracker-" + now.UTC().Format("2006-01-02") + ".csv"
}
