// Package export renders the tracker's data as a CSV sheet and a JSON
// backup, and parses backups back.
package export

import (
	"strings"
	"time"

	"fintrack/internal/core"
)

// EmptyCSV is returned by ToCSV for an empty transaction list.
const EmptyCSV = "No transactions found"

var csvHeader = []string{"Date", "Type", "Category", "Amount", "Description", "Recurring"}

// ToCSV renders one row per transaction in input order. Every cell is wrapped
// in double quotes and embedded quotes are left as they are, so descriptions
// containing quotes produce rows strict CSV parsers reject.
//
// encoding/csv is not used because it escapes quotes.
func ToCSV(txs []core.Transaction) string {
	if len(txs) == 0 {
		return EmptyCSV
	}
	rows := make([]string, 0, len(txs)+1)
	rows = append(rows, strings.Join(csvHeader, ","))
	for _, tx := range txs {
		recurring := "No"
		if tx.Recurring {
			recurring = "Yes"
		}
		cells := []string{
			tx.Date.String(),
			string(tx.Type),
			tx.Category,
			tx.Amount.String(),
			tx.Description,
			recurring,
		}
		for i, c := range cells {
			cells[i] = `"` + c + `"`
		}
		rows = append(rows, strings.Join(cells, ","))
	}
	return strings.Join(rows, "\n")
}

// FileNames returns the CSV and backup download names for the UTC calendar
// date of now.
func FileNames(now time.Time) (csvName, backupName string) {
	day := now.UTC().Format("2006-01-02")
	return "expense_tracker_transactions_" + day + ".csv", "expense_tracker_backup_" + day + ".json"
}
