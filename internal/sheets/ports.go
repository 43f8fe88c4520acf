// Package sheets defines the spreadsheet mirror the worker writes recorded
// transactions to.
package sheets

import (
	"context"
	"strconv"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionMirror keeps a copy of recorded transactions outside the
	// tracker's own store.
	TransactionMirror interface {
		// AppendTransaction adds tx unless a row with the same id already
		// exists, returning a reference to the row.
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
		// ClearTransactions removes every mirrored row.
		ClearTransactions(ctx context.Context) error
	}
)

// Header is the first row of a mirror sheet.
var Header = []string{"Date", "Type", "Category", "Amount", "Description", "Recurring", "ID"}

// Row renders tx in Header order.
func Row(tx core.Transaction) []string {
	recurring := "No"
	if tx.Recurring {
		recurring = "Yes"
	}
	return []string{
		tx.Date.String(),
		string(tx.Type),
		tx.Category,
		tx.Amount.String(),
		tx.Description,
		recurring,
		strconv.FormatInt(tx.ID, 10),
	}
}
