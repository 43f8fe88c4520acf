// Package store keeps the tracker's four records on top of a plain
// string key-value backend.
package store

import "context"

// Keys of the four persisted records.
const (
	KeyTransactions = "expense_tracker_transactions"
	KeyBudget       = "expense_tracker_budget"
	KeySavingsGoal  = "expense_tracker_savings_goal"
	KeyTheme        = "expense_tracker_theme"
)

// AllKeys lists every record key in clear order.
var AllKeys = []string{KeyTransactions, KeyBudget, KeySavingsGoal, KeyTheme}

// Ports for storage backends.
type (
	// KV is a string key-value store. Get reports ok=false for a missing key.
	KV interface {
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
		Delete(ctx context.Context, key string) error
	}

	// Pinger is implemented by backends that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
