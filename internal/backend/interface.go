package backend

import (
	"context"

	"fintrack/internal/services"
	"fintrack/internal/store"
)

// Storage is what a backend must provide: the key/value surface the
// record store runs on plus a readiness probe.
type Storage interface {
	store.KV
	store.Pinger
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the storage, the optional event publisher and a
// cleanup function releasing both.
type BackendResult struct {
	Storage   Storage
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// Event publishing, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
