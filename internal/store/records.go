package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Records reads and writes the tracker records through a KV backend.
// Stored text that does not decode is treated as absent, never as an error.
type Records struct {
	kv  KV
	now func() time.Time

	// serializes read-modify-write of the transaction list within a process
	mu sync.Mutex
}

// Snapshot is everything the tracker persists, read in one pass.
type Snapshot struct {
	Transactions   []core.Transaction
	Budget         core.Money
	HasBudget      bool
	SavingsGoal    core.SavingsGoal
	HasSavingsGoal bool
	Theme          core.Theme

	// Raw stored text, nil when the key is absent.
	RawBudget      *string
	RawSavingsGoal *string
}

func NewRecords(kv KV) *Records {
	return &Records{kv: kv, now: time.Now}
}

// WithClock overrides the clock used for transaction ids.
func (r *Records) WithClock(now func() time.Time) *Records {
	r.now = now
	return r
}

// List returns the stored transactions in insertion order.
func (r *Records) List(ctx context.Context) ([]core.Transaction, error) {
	raw, ok, err := r.kv.Get(ctx, KeyTransactions)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	if !ok {
		return []core.Transaction{}, nil
	}
	return decodeTransactions(raw), nil
}

func decodeTransactions(raw string) []core.Transaction {
	var txs []core.Transaction
	if err := json.Unmarshal([]byte(raw), &txs); err != nil || txs == nil {
		return []core.Transaction{}
	}
	return txs
}

// Append assigns an id to tx, adds it to the end of the list and writes the
// whole list back. The id is the current Unix time in milliseconds, moved past
// the largest stored id when they would collide.
func (r *Records) Append(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txs, err := r.List(ctx)
	if err != nil {
		return core.Transaction{}, err
	}

	id := r.now().UnixMilli()
	for _, existing := range txs {
		if existing.ID >= id {
			id = existing.ID + 1
		}
	}
	tx.ID = id
	txs = append(txs, tx)

	if err := r.writeTransactions(ctx, txs); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (r *Records) writeTransactions(ctx context.Context, txs []core.Transaction) error {
	b, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	if err := r.kv.Set(ctx, KeyTransactions, string(b)); err != nil {
		return fmt.Errorf("write transactions: %w", err)
	}
	return nil
}

func (r *Records) SetBudget(ctx context.Context, amount core.Money) error {
	if err := r.kv.Set(ctx, KeyBudget, amount.String()); err != nil {
		return fmt.Errorf("write budget: %w", err)
	}
	return nil
}

// Budget returns the stored budget; ok is false when absent or unreadable.
func (r *Records) Budget(ctx context.Context) (core.Money, bool, error) {
	raw, err := r.RawBudget(ctx)
	if err != nil || raw == nil {
		return core.Money{}, false, err
	}
	m, ok := decodeBudget(*raw)
	return m, ok, nil
}

func decodeBudget(raw string) (core.Money, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return core.Money{}, false
	}
	return core.FromDecimal(d), true
}

func (r *Records) SetSavingsGoal(ctx context.Context, goal core.SavingsGoal) error {
	b, err := json.Marshal(goal)
	if err != nil {
		return fmt.Errorf("encode savings goal: %w", err)
	}
	if err := r.kv.Set(ctx, KeySavingsGoal, string(b)); err != nil {
		return fmt.Errorf("write savings goal: %w", err)
	}
	return nil
}

// SavingsGoal returns the stored goal; ok is false when absent or unreadable.
func (r *Records) SavingsGoal(ctx context.Context) (core.SavingsGoal, bool, error) {
	raw, err := r.RawSavingsGoal(ctx)
	if err != nil || raw == nil {
		return core.SavingsGoal{}, false, err
	}
	g, ok := decodeSavingsGoal(*raw)
	return g, ok, nil
}

func decodeSavingsGoal(raw string) (core.SavingsGoal, bool) {
	var g *core.SavingsGoal
	if err := json.Unmarshal([]byte(raw), &g); err != nil || g == nil {
		return core.SavingsGoal{}, false
	}
	return *g, true
}

func (r *Records) SetTheme(ctx context.Context, theme core.Theme) error {
	if err := r.kv.Set(ctx, KeyTheme, string(theme)); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	return nil
}

// Theme returns the stored theme, light unless dark was saved.
func (r *Records) Theme(ctx context.Context) (core.Theme, error) {
	raw, ok, err := r.kv.Get(ctx, KeyTheme)
	if err != nil {
		return core.Light, fmt.Errorf("read theme: %w", err)
	}
	if !ok {
		return core.Light, nil
	}
	return decodeTheme(raw), nil
}

func decodeTheme(raw string) core.Theme {
	if t, err := core.ParseTheme(raw); err == nil {
		return t
	}
	return core.Light
}

func (r *Records) RawBudget(ctx context.Context) (*string, error) {
	return r.raw(ctx, KeyBudget)
}

func (r *Records) RawSavingsGoal(ctx context.Context) (*string, error) {
	return r.raw(ctx, KeySavingsGoal)
}

func (r *Records) raw(ctx context.Context, key string) (*string, error) {
	v, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// Snapshot reads all four records.
func (r *Records) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	var err error
	if s.Transactions, err = r.List(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.RawBudget, err = r.RawBudget(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.RawBudget != nil {
		s.Budget, s.HasBudget = decodeBudget(*s.RawBudget)
	}
	if s.RawSavingsGoal, err = r.RawSavingsGoal(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.RawSavingsGoal != nil {
		s.SavingsGoal, s.HasSavingsGoal = decodeSavingsGoal(*s.RawSavingsGoal)
	}
	if s.Theme, err = r.Theme(ctx); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Clear deletes every record. Each delete is attempted even when an earlier
// one failed; the returned error joins all failures and the store may be left
// partially cleared.
func (r *Records) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, key := range AllKeys {
		if err := r.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Restore replaces transactions, budget and savings goal with the given
// values. Nil raw values delete the record. The theme is left alone.
func (r *Records) Restore(ctx context.Context, txs []core.Transaction, rawBudget, rawSavingsGoal *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if txs == nil {
		txs = []core.Transaction{}
	}
	if err := r.writeTransactions(ctx, txs); err != nil {
		return err
	}
	if err := r.restoreRaw(ctx, KeyBudget, rawBudget); err != nil {
		return err
	}
	return r.restoreRaw(ctx, KeySavingsGoal, rawSavingsGoal)
}

func (r *Records) restoreRaw(ctx context.Context, key string, v *string) error {
	var err error
	if v == nil {
		err = r.kv.Delete(ctx, key)
	} else {
		err = r.kv.Set(ctx, key, *v)
	}
	if err != nil {
		return fmt.Errorf("restore %s: %w", key, err)
	}
	return nil
}
