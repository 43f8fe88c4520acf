package export

import (
	"encoding/json"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Backup is the JSON backup document. Budget and SavingsGoal hold the stored
// text verbatim, nil when the record is absent.
type Backup struct {
	Transactions []core.Transaction `json:"transactions"`
	Budget       *string            `json:"budget"`
	SavingsGoal  *string            `json:"savingsGoal"`
}

// FromSnapshot builds a backup document from a store snapshot.
func FromSnapshot(s store.Snapshot) Backup {
	txs := s.Transactions
	if txs == nil {
		txs = []core.Transaction{}
	}
	return Backup{Transactions: txs, Budget: s.RawBudget, SavingsGoal: s.RawSavingsGoal}
}

// ToBackup serializes the snapshot indented with two spaces.
func ToBackup(s store.Snapshot) ([]byte, error) {
	b, err := json.MarshalIndent(FromSnapshot(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return b, nil
}

// ParseBackup decodes a backup document.
func ParseBackup(b []byte) (Backup, error) {
	var bk Backup
	if err := json.Unmarshal(b, &bk); err != nil {
		return Backup{}, fmt.Errorf("decode backup: %w", err)
	}
	if bk.Transactions == nil {
		bk.Transactions = []core.Transaction{}
	}
	return bk, nil
}
