package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// Mirror keeps mirrored rows in memory. The worker uses it when no
// spreadsheet is configured.
type Mirror struct {
	mu   sync.Mutex
	rows []core.Transaction
	ids  map[int64]int
}

var _ sheets.TransactionMirror = (*Mirror)(nil)

func NewMirror() *Mirror {
	return &Mirror{ids: map[int64]int{}}
}

func (m *Mirror) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.ids[tx.ID]; ok {
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	m.rows = append(m.rows, tx)
	m.ids[tx.ID] = len(m.rows) - 1
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) ClearTransactions(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	m.ids = map[int64]int{}
	return nil
}

// Rows returns a copy of the mirrored transactions.
func (m *Mirror) Rows() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Transaction(nil), m.rows...)
}
