package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"finance-tracker/internal/core"
)

func lunch() core.Transaction {
	return core.Transaction{
		ID:       1,
		Type:     core.Expense,
		Amount:   core.MustAmount("42.5"),
		Date:     core.NewDate(2024, 1, 15),
		Category: "Food",
		Notes:    "lunch",
	}
}

func TestToCSV(t *testing.T) {
	salary := core.Transaction{ID: 2, Type: core.Income, Amount: core.MustAmount("1000"), Date: core.NewDate(2024, 1, 1), Category: "Salary"}

	tests := []struct {
		name string
		txs  []core.Transaction
		want string
	}{
		{
			name: "header only",
			txs:  nil,
			want: "Date,Type,Category,Amount,Notes",
		},
		{
			name: "single transaction",
			txs:  []core.Transaction{lunch()},
			want: "Date,Type,Category,Amount,Notes\n\"2024-01-15\",\"expense\",\"Food\",\"42.5\",\"lunch\"",
		},
		{
			name: "missing notes and order kept",
			txs:  []core.Transaction{lunch(), salary},
			want: "Date,Type,Category,Amount,Notes\n" +
				"\"2024-01-15\",\"expense\",\"Food\",\"42.5\",\"lunch\"\n" +
				"\"2024-01-01\",\"income\",\"Salary\",\"1000\",\"\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToCSV(tt.txs); got != tt.want {
				t.Errorf("ToCSV() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestToCSVEscapesQuotes(t *testing.T) {
	tx := lunch()
	tx.Notes = `team "offsite", day 2`

	out := ToCSV([]core.Transaction{tx})
	if !strings.HasSuffix(out, `"team ""offsite"", day 2"`) {
		t.Fatalf("unexpected escaping: %s", out)
	}

	// The result must parse back with a standard CSV reader.
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("csv parse: %v", err)
	}
	if len(records) != 2 || records[1][4] != tx.Notes {
		t.Errorf("records = %q", records)
	}
}

func TestWriteCSVMatchesToCSV(t *testing.T) {
	var buf bytes.Buffer
	txs := []core.Transaction{lunch()}
	if err := WriteCSV(&buf, txs); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if buf.String() != ToCSV(txs) {
		t.Errorf("WriteCSV and ToCSV differ")
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)
	if got := FileName(now); got != "finance-tracker-2024-01-15.csv" {
		t.Errorf("FileName = %q", got)
	}
}
