package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/store"
)

// SeedFile is the backup file NewFromDir loads into a fresh store.
const SeedFile = "seed_backup.json"

// Store is an in-process KV. Contents are lost when the process exits.
type Store struct {
	mu   sync.Mutex
	data map[string]string
}

func New() *Store {
	return &Store{data: map[string]string{}}
}

// NewFromDir returns a store seeded from <base>/seed_backup.json when that
// file exists and parses. A missing or broken seed yields an empty store.
func NewFromDir(base string) *Store {
	s := New()
	b, err := os.ReadFile(filepath.Join(base, SeedFile))
	if err != nil {
		return s
	}
	var seed struct {
		Transactions json.RawMessage `json:"transactions"`
		Budget       *string         `json:"budget"`
		SavingsGoal  *string         `json:"savingsGoal"`
	}
	if err := json.Unmarshal(b, &seed); err != nil {
		return s
	}
	if len(seed.Transactions) > 0 && string(seed.Transactions) != "null" {
		s.data[store.KeyTransactions] = string(seed.Transactions)
	}
	if seed.Budget != nil {
		s.data[store.KeyBudget] = *seed.Budget
	}
	if seed.SavingsGoal != nil {
		s.data[store.KeySavingsGoal] = *seed.SavingsGoal
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
